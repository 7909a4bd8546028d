//go:build debug

package channel

// New ignores size: a debug build synchronizes producer and consumer on
// every hand-off.
func New[T any](size int) Channel[T] {
	return NewPipe[T](0)
}
