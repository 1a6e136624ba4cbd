package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries a per-call id so both ends can correlate logs.
const RequestIDHeader = "X-Request-Id"

// ErrUnexpectedStatus is the cause of a CommunicationError for any status
// other than 200 and 500.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Outcome is how a call ended.
type Outcome uint8

const (
	// OutcomeOK means status 200 and a decodable result.
	OutcomeOK Outcome = iota
	// OutcomeRemoteError means status 500 carrying a serialized exception.
	OutcomeRemoteError
	// OutcomeTransportError means the call never produced an application
	// answer: the transport failed, the status was unexpected, or the body
	// could not be decoded.
	OutcomeTransportError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRemoteError:
		return "remote error"
	case OutcomeTransportError:
		return "transport error"
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// Result is the three-way outcome of a call. Exactly one of Value (for
// OutcomeOK), Remote or Transport is meaningful.
type Result struct {
	Outcome   Outcome
	Value     any
	Remote    *RemoteError
	Transport *CommunicationError
}

// Err returns nil, the *RemoteError or the *CommunicationError.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeRemoteError:
		return r.Remote
	case OutcomeTransportError:
		return r.Transport
	}
	return nil
}

// Communicator calls remote functions over a Transport, encoding positional
// arguments and decoding results with its own Serializer. It keeps no
// per-call state; calls from several goroutines are independent.
type Communicator struct {
	serializer *Serializer
	transport  Transport
	logger     *logrus.Entry
}

func NewCommunicator(opts ...Option) *Communicator {
	o := buildOptions(opts)
	if o.transport == nil {
		t := NewHTTPTransport(nil)
		t.MaxBodySize = o.maxBodySize
		o.transport = t
	}
	return &Communicator{
		serializer: o.serializer,
		transport:  o.transport,
		logger:     o.logger,
	}
}

func (c *Communicator) Serializer() *Serializer { return c.serializer }

// Send calls url with args and returns the decoded result. A remote failure
// is returned as the *RemoteError itself; transport trouble as a
// *CommunicationError; local encoding failures as a *SerializationError.
func (c *Communicator) Send(ctx context.Context, url string, args ...any) (any, error) {
	res, err := c.Call(ctx, url, args...)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Call is Send with the outcome spelled out. The returned error is only set
// when the arguments could not be encoded, in which case nothing was sent.
func (c *Communicator) Call(ctx context.Context, url string, args ...any) (Result, error) {
	if args == nil {
		args = []any{}
	}
	body, err := c.serializer.Marshal(args)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode arguments: %w", err)
	}

	requestID := uuid.NewString()
	header := http.Header{}
	header.Set("Content-Type", c.serializer.Codec().ContentType())
	header.Set(RequestIDHeader, requestID)

	log := c.logger.WithFields(logrus.Fields{"url": url, "request_id": requestID})
	log.Debug("sending call")

	resp, err := c.transport.Post(ctx, url, body, header)
	if err != nil {
		commErr := &CommunicationError{URL: url, Err: err}
		if resp != nil {
			commErr.StatusCode = resp.StatusCode
			commErr.Body = resp.Body
		}
		return c.transportFailure(log, commErr), nil
	}
	log = log.WithField("status", resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusOK:
		value, err := c.serializer.Unmarshal(resp.Body)
		if err != nil {
			return c.transportFailure(log, &CommunicationError{URL: url, StatusCode: resp.StatusCode, Body: resp.Body, Err: err}), nil
		}
		log.Debug("call succeeded")
		return Result{Outcome: OutcomeOK, Value: value}, nil
	case http.StatusInternalServerError:
		value, err := c.serializer.Unmarshal(resp.Body)
		if err != nil {
			return c.transportFailure(log, &CommunicationError{URL: url, StatusCode: resp.StatusCode, Body: resp.Body, Err: err}), nil
		}
		remote, ok := value.(*RemoteError)
		if !ok {
			err := fmt.Errorf("error body decoded to %T, want exception", value)
			return c.transportFailure(log, &CommunicationError{URL: url, StatusCode: resp.StatusCode, Body: resp.Body, Err: err}), nil
		}
		log.WithFields(logrus.Fields{"error_type": remote.Type, "error": remote.Message}).Warn("remote call raised")
		return Result{Outcome: OutcomeRemoteError, Remote: remote}, nil
	}
	return c.transportFailure(log, &CommunicationError{URL: url, StatusCode: resp.StatusCode, Body: resp.Body, Err: ErrUnexpectedStatus}), nil
}

func (c *Communicator) transportFailure(log *logrus.Entry, err *CommunicationError) Result {
	log.WithError(err.Err).Warn("call failed in transport")
	return Result{Outcome: OutcomeTransportError, Transport: err}
}
