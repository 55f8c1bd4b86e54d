package service

import (
	"context"
	"net/http"
	"sync"
)

// listener guards an http.Server that Shutdown may reach before or while
// Start is running
type listener struct {
	mu     sync.Mutex
	ctx    context.Context
	server *http.Server
	closed bool
}

func (l *listener) serve(ctx context.Context, server *http.Server) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return http.ErrServerClosed
	}
	l.server = server
	l.ctx = ctx
	l.mu.Unlock()
	return server.ListenAndServe()
}

func (l *listener) shutdown() error {
	l.mu.Lock()
	l.closed = true
	server, ctx := l.server, l.ctx
	l.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
