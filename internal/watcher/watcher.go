// Package watcher re-reads a single file whenever it changes and hands the
// full contents to one consumer.
package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/autoed/companion/internal/channel"
	"github.com/autoed/companion/pkg/core"
)

// ErrFileMissing is returned by Start when the watched file cannot be opened.
var ErrFileMissing = errors.New("watched file is missing")

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("watcher already started")

// ErrStopped is returned by Start once the watcher has been stopped. The
// payload channel is closed by Stop, so a watcher is not reusable.
var ErrStopped = errors.New("watcher stopped")

// Options configures delivery filtering.
type Options struct {
	// IgnoreEmpty drops empty reads. The game truncates the file before
	// rewriting it, so an empty read is usually a race.
	IgnoreEmpty bool
	// IgnoreDuplicate drops a read identical to the previous delivery.
	IgnoreDuplicate bool
	// Buffer is the payload channel size.
	Buffer int
}

// DefaultOptions returns the default delivery options.
func DefaultOptions() Options {
	return Options{IgnoreEmpty: true, Buffer: 16}
}

// Stats counts reads by outcome.
type Stats struct {
	Delivered  uint64
	Empty      uint64
	Duplicates uint64
	ReadErrors uint64
}

// Watcher delivers the contents of dir/name on start and after every change.
type Watcher struct {
	dir    string
	name   string
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	out  channel.Channel[core.Payload]
	fs   *fsnotify.Watcher
	file *os.File
	last []byte

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	delivered, empty, duplicates, readErrors atomic.Uint64
}

// New creates a watcher for dir/name. Nothing is opened until Start.
func New(dir, name string, opts Options, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultOptions().Buffer
	}
	return &Watcher{
		dir:    dir,
		name:   name,
		opts:   opts,
		logger: logger.With("component", "watcher", "file", name),
		now:    time.Now,
		out:    channel.New[core.Payload](opts.Buffer),
	}
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return filepath.Join(w.dir, w.name)
}

// Payloads returns the delivery channel. It is closed after Stop.
func (w *Watcher) Payloads() channel.Receiver[core.Payload] {
	return w.out
}

// Start opens the file and begins watching. The first delivery is an
// immediate read that happens before any change event is handled.
// A missing file is reported as ErrFileMissing.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrStopped
	}
	if w.started {
		return ErrAlreadyStarted
	}

	f, err := os.Open(w.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileMissing, w.Path())
		}
		return fmt.Errorf("opening %s: %w", w.Path(), err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fs.Add(w.dir); err != nil {
		fs.Close()
		f.Close()
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.file = f
	w.fs = fs
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true

	go w.run(ctx)

	w.logger.Info("watching file", "path", w.Path())
	return nil
}

// Stop ends the event loop, then releases the notifier and the file handle.
// A read in progress is allowed to finish.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return nil
	}
	w.cancel()
	<-w.done

	var errs []error
	if err := w.fs.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing fsnotify watcher: %w", err))
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing %s: %w", w.Path(), err))
	}
	w.out.Close()
	w.started = false
	w.stopped = true
	return errors.Join(errs...)
}

// Stats returns the read counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Delivered:  w.delivered.Load(),
		Empty:      w.empty.Load(),
		Duplicates: w.duplicates.Load(),
		ReadErrors: w.readErrors.Load(),
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	w.read(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Base(ev.Name), w.name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.reopen()
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.read(ctx)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// reopen swaps the handle when the file was replaced rather than rewritten.
func (w *Watcher) reopen() {
	f, err := os.Open(w.Path())
	if err != nil {
		w.logger.Debug("reopen failed", "error", err)
		return
	}
	w.file.Close()
	w.file = f
}

func (w *Watcher) read(ctx context.Context) {
	data, err := w.readAll()
	if err != nil {
		w.readErrors.Add(1)
		w.logger.Debug("transient read failure", "error", err)
		return
	}

	if len(data) == 0 && w.opts.IgnoreEmpty {
		w.empty.Add(1)
		return
	}
	if w.opts.IgnoreDuplicate && w.last != nil && bytes.Equal(data, w.last) {
		w.duplicates.Add(1)
		return
	}

	if !w.out.Send(ctx, core.Payload{Data: data, ReadAt: w.now()}) {
		return
	}
	w.last = data
	w.delivered.Add(1)
}

func (w *Watcher) readAll() ([]byte, error) {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	data, err := io.ReadAll(w.file)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return data, nil
}
