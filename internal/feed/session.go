// Package feed publishes document edits to external collaborators.
//
// A Session owns a document and runs every access to it on one goroutine.
// A Hub forwards the edits of attached documents to websocket clients, and
// Server exposes both over HTTP.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/textcore/internal/engine"
)

// ErrSessionClosed is returned by Do after Close.
var ErrSessionClosed = errors.New("session closed")

const defaultQueueSize = 64

type call struct {
	fn     func(*engine.Document) error
	result chan error
}

// Session serializes access to a document. Documents do no locking of
// their own, so readers and writers on other goroutines go through Do.
type Session struct {
	ID  string
	doc *engine.Document

	queue     chan call
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewSession starts the worker for doc.
func NewSession(id string, doc *engine.Document) *Session {
	s := &Session{
		ID:      id,
		doc:     doc,
		queue:   make(chan call, defaultQueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			s.drain()
			return
		case c := <-s.queue:
			c.result <- s.exec(c.fn)
		}
	}
}

func (s *Session) exec(fn func(*engine.Document) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("session %s: panic: %v", s.ID, p)
		}
	}()
	return fn(s.doc)
}

func (s *Session) drain() {
	for {
		select {
		case c := <-s.queue:
			c.result <- ErrSessionClosed
		default:
			return
		}
	}
}

// Do runs fn on the session goroutine and waits for it. Cancelling ctx
// abandons the wait, not fn.
func (s *Session) Do(ctx context.Context, fn func(*engine.Document) error) error {
	c := call{fn: fn, result: make(chan error, 1)}
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.queue <- c:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker after the running call finishes. Queued calls fail
// with ErrSessionClosed. The document is left open.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	<-s.stopped
}
