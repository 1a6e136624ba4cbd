package rpc

import (
	"github.com/sirupsen/logrus"
)

type options struct {
	serializer  *Serializer
	transport   Transport
	logger      *logrus.Entry
	maxBodySize int64
}

// Option configures a Communicator or a Server.
type Option func(*options)

// WithSerializer replaces the default serializer (DefaultRegistry over
// DefaultCodec).
func WithSerializer(s *Serializer) Option {
	return func(o *options) {
		o.serializer = s
	}
}

// WithTransport sets the Communicator's transport. Ignored by Server.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxBodySize caps bodies read by the default HTTP transport and by the
// Server.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		o.maxBodySize = n
	}
}

func buildOptions(opts []Option) options {
	o := options{maxBodySize: DefaultMaxBodySize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.serializer == nil {
		o.serializer = NewSerializer(DefaultRegistry())
	}
	if o.logger == nil {
		o.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return o
}
