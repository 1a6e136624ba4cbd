package rpc

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
)

// DefaultMaxBodySize caps response bodies read by HTTPTransport and request
// bodies read by Server.
const DefaultMaxBodySize int64 = 32 << 20

// Response is the raw outcome of a transport round trip.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport issues a POST and returns the status code and body. Retries,
// timeouts and TLS are the transport's business.
type Transport interface {
	Post(ctx context.Context, url string, body []byte, header http.Header) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, url string, body []byte, header http.Header) (*Response, error)

func (f TransportFunc) Post(ctx context.Context, url string, body []byte, header http.Header) (*Response, error) {
	return f(ctx, url, body, header)
}

// HTTPTransport posts over an *http.Client.
type HTTPTransport struct {
	Client *http.Client
	// MaxBodySize limits the response body; <= 0 means DefaultMaxBodySize.
	MaxBodySize int64
}

var _ Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client, MaxBodySize: DefaultMaxBodySize}
}

func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := t.MaxBodySize
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	data, err := readLimited(resp.Body, limit)
	if err != nil {
		return &Response{StatusCode: resp.StatusCode, Body: data}, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
