package rpc

import (
	"bytes"
	"io"
)

type LimitedWriter struct {
	W io.Writer // underlying writer
	N int64     // max bytes remaining
}

// NewLimitedWriter returns a new LimitedWriter with underlying writer w and n bytes limit.
func NewLimitedWriter(w io.Writer, n int64) *LimitedWriter {
	return &LimitedWriter{W: w, N: n}
}

// Write fails with ErrBodyTooLarge once the limit is used up, after writing
// whatever still fits.
func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.N <= 0 { // if no bytes remaining
		return 0, ErrBodyTooLarge
	}
	if int64(len(p)) > l.N { // if p is larger than the remaining limit
		n, err = l.W.Write(p[:l.N]) // write only the first N bytes
		l.N = 0                     // set remaining bytes to 0
		if err != nil {
			return n, err
		}
		return n, ErrBodyTooLarge
	}
	n, err = l.W.Write(p) // write the whole p
	l.N -= int64(n)       // decrement remaining bytes
	return
}

// readLimited drains r into memory, failing with ErrBodyTooLarge past limit.
// A limit <= 0 means no limit.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	var w io.Writer = &buf
	if limit > 0 {
		w = NewLimitedWriter(&buf, limit)
	}
	_, err := io.Copy(w, r)
	return buf.Bytes(), err
}
