package server

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrLoopClosed is returned by Do once the loop was closed.
var ErrLoopClosed = errors.New("server: loop closed")

// DefaultQueueSize is the dispatch queue capacity used when NewLoop gets a
// non-positive size.
const DefaultQueueSize = 256

// Loop runs functions one at a time on a dedicated goroutine.
type Loop struct {
	dispatchCh chan func()
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

// NewLoop starts a loop.
func NewLoop(queueSize int, logger *slog.Logger) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		dispatchCh: make(chan func(), queueSize),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case fn := <-l.dispatchCh:
			fn()
		case <-l.done:
			return
		}
	}
}

// Do runs fn on the loop and waits for it to return. A panic in fn is
// recovered and returned as an error. fn must not call Do or Close.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	var panicked any
	task := func() {
		defer close(finished)
		defer func() {
			panicked = recover()
		}()
		fn()
	}

	select {
	case l.dispatchCh <- task:
	case <-l.done:
		return ErrLoopClosed
	}

	select {
	case <-finished:
	case <-l.stopped:
		select {
		case <-finished:
		default:
			return ErrLoopClosed
		}
	}

	if panicked != nil {
		l.logger.Error("loop callback panic", "panic", panicked)
		return fmt.Errorf("server: loop callback panicked: %v", panicked)
	}
	return nil
}

// Close stops the loop after the running function, if any, returns. Queued
// functions are dropped and their Do calls return ErrLoopClosed.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	<-l.stopped
}
