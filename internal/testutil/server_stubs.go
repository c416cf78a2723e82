package testutil

import (
	"context"
	"net/http"
	"sync/atomic"
)

// StubHTTPServer records lifecycle calls made by the server package.
// ListenAndServe returns ListenErr immediately. When Hold is set, Shutdown
// waits for it to close or for the context to end.
type StubHTTPServer struct {
	AddrVal     string
	HandlerVal  http.Handler
	ListenErr   error
	ShutdownErr error
	Hold        chan struct{}

	listens   atomic.Int32
	shutdowns atomic.Int32
}

func (s *StubHTTPServer) ListenAndServe() error {
	s.listens.Add(1)
	return s.ListenErr
}

func (s *StubHTTPServer) Shutdown(ctx context.Context) error {
	s.shutdowns.Add(1)
	if s.Hold != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.Hold:
		}
	}
	return s.ShutdownErr
}

func (s *StubHTTPServer) Addr() string {
	if s.AddrVal == "" {
		return ":0"
	}
	return s.AddrVal
}

func (s *StubHTTPServer) Handler() http.Handler {
	if s.HandlerVal == nil {
		return http.NewServeMux()
	}
	return s.HandlerVal
}

// ListenCalls reports how many times ListenAndServe ran.
func (s *StubHTTPServer) ListenCalls() int { return int(s.listens.Load()) }

// ShutdownCalls reports how many times Shutdown ran.
func (s *StubHTTPServer) ShutdownCalls() int { return int(s.shutdowns.Load()) }
