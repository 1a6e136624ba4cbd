package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
)

// Func is a remotely callable function. args are the decoded positional
// arguments of the call.
type Func func(ctx context.Context, args []any) (any, error)

// PanicError is what a Func panic turns into before it is sent back.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%v", e.Value)
}

func (e *PanicError) ErrorType() string { return "panic" }

// Server answers Communicator calls. Each registered path takes a POSTed
// argument array and replies 200 with the serialized result, or 500 with the
// serialized error.
type Server struct {
	serializer  *Serializer
	logger      *logrus.Entry
	maxBodySize int64

	mu     sync.RWMutex
	routes map[string]Func
}

var _ http.Handler = (*Server)(nil)

func NewServer(opts ...Option) *Server {
	o := buildOptions(opts)
	return &Server{
		serializer:  o.serializer,
		logger:      o.logger,
		maxBodySize: o.maxBodySize,
		routes:      make(map[string]Func),
	}
}

// Handle registers fn at path, replacing any previous function there.
func (s *Server) Handle(path string, fn Func) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = fn
}

func (s *Server) lookup(path string) (Func, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.routes[path]
	return fn, ok
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": r.Header.Get(RequestIDHeader),
	})

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fn, ok := s.lookup(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	body, err := readLimited(r.Body, s.maxBodySize)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	decoded, err := s.serializer.Unmarshal(body)
	if err != nil {
		log.WithError(err).Warn("undecodable call arguments")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	args, ok := decoded.([]any)
	if !ok {
		http.Error(w, fmt.Sprintf("arguments must be an array, got %T", decoded), http.StatusBadRequest)
		return
	}

	result, err := s.invoke(r.Context(), fn, args)
	if err != nil {
		log.WithError(err).Debug("call raised")
		s.reply(w, log, http.StatusInternalServerError, err)
		return
	}
	s.reply(w, log, http.StatusOK, result)
}

func (s *Server) invoke(ctx context.Context, fn Func, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn(ctx, args)
}

// marshal is Serializer.Marshal with handler panics turned into errors, so a
// reply is always written.
func (s *Server) marshal(v any) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			body, err = nil, &PanicError{Value: r}
		}
	}()
	return s.serializer.Marshal(v)
}

func (s *Server) reply(w http.ResponseWriter, log *logrus.Entry, status int, v any) {
	body, err := s.marshal(v)
	if err != nil {
		// the result itself could not be encoded; report that as the error
		log.WithError(err).Error("failed to encode reply")
		status = http.StatusInternalServerError
		body, err = s.marshal(err)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", s.serializer.Codec().ContentType())
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.WithError(err).Warn("failed to write reply")
	}
}
