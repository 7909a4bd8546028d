//go:build !debug

package channel

// New creates the watcher's payload channel. size values may queue up so a
// slow consumer does not stall the producer between file events.
func New[T any](size int) Channel[T] {
	return NewPipe[T](size)
}
