// Package channel provides generic channel interfaces used to hand values
// from a producer goroutine to a single consumer.
package channel

import (
	"context"
	"sync"
)

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel.
type Sender[T any] interface {
	// Send delivers v, blocking until it is accepted or ctx is done.
	// It reports whether v was delivered.
	Send(ctx context.Context, v T) bool
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}

// Pipe is a Channel over a Go channel of fixed capacity. A zero capacity
// pipe hands each value directly to the receiver.
type Pipe[T any] struct {
	ch   chan T
	once sync.Once
}

// NewPipe creates a pipe holding up to capacity undelivered values.
func NewPipe[T any](capacity int) *Pipe[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Pipe[T]{ch: make(chan T, capacity)}
}

func (p *Pipe[T]) Send(ctx context.Context, v T) bool {
	select {
	case p.ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipe[T]) Receive() <-chan T {
	return p.ch
}

// Len is the number of values waiting; always 0 without capacity.
func (p *Pipe[T]) Len() int {
	return len(p.ch)
}

// Cap is the pipe's capacity.
func (p *Pipe[T]) Cap() int {
	return cap(p.ch)
}

// Close closes the pipe. Values already queued can still be received.
// Closing twice is a no-op; sending after Close panics.
func (p *Pipe[T]) Close() {
	p.once.Do(func() { close(p.ch) })
}
