package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoed/companion/pkg/core"
)

const statusFile = "Status.json"

func setup(t *testing.T, contents string, opts Options) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, statusFile)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	w := New(dir, statusFile, opts, nil)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })
	return w, path
}

func next(t *testing.T, w *Watcher) core.Payload {
	t.Helper()
	select {
	case p := <-w.Payloads().Receive():
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
	}
	return core.Payload{}
}

// waitFor reads payloads until one carries want.
func waitFor(t *testing.T, w *Watcher, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case p := <-w.Payloads().Receive():
			if string(p.Data) == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func assertQuiet(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	select {
	case p := <-w.Payloads().Receive():
		t.Fatalf("unexpected payload %q", p.Data)
	case <-time.After(d):
	}
}

func TestStart_MissingFile(t *testing.T) {
	w := New(t.TempDir(), statusFile, DefaultOptions(), nil)

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileMissing)
}

func TestStart_EagerFirstRead(t *testing.T) {
	w, _ := setup(t, `{"Flags":1}`, DefaultOptions())

	p := next(t, w)
	assert.Equal(t, `{"Flags":1}`, string(p.Data))
	assert.False(t, p.ReadAt.IsZero())
}

func TestStart_Twice(t *testing.T) {
	w, _ := setup(t, "x", DefaultOptions())
	assert.ErrorIs(t, w.Start(context.Background()), ErrAlreadyStarted)
}

func TestModifyIsDelivered(t *testing.T) {
	w, path := setup(t, `{"Flags":1}`, DefaultOptions())
	next(t, w)

	require.NoError(t, os.WriteFile(path, []byte(`{"Flags":2}`), 0o644))
	waitFor(t, w, `{"Flags":2}`)
}

func TestEmptyReadIgnored(t *testing.T) {
	w, path := setup(t, "", DefaultOptions())

	assertQuiet(t, w, 200*time.Millisecond)

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assertQuiet(t, w, 200*time.Millisecond)
	assert.NotZero(t, w.Stats().Empty)
	assert.Zero(t, w.Stats().Delivered)
}

func TestEmptyReadDeliveredWhenNotIgnored(t *testing.T) {
	w, _ := setup(t, "", Options{})

	p := next(t, w)
	assert.Empty(t, p.Data)
}

func TestDuplicateReadIgnored(t *testing.T) {
	w, path := setup(t, "same", Options{IgnoreEmpty: true, IgnoreDuplicate: true})
	next(t, w)

	require.NoError(t, os.WriteFile(path, []byte("same"), 0o644))
	assertQuiet(t, w, 200*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("changed"), 0o644))
	waitFor(t, w, "changed")
}

func TestOtherFilesIgnored(t *testing.T) {
	w, path := setup(t, "a", DefaultOptions())
	next(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "Journal.log"), []byte("x"), 0o644))
	assertQuiet(t, w, 200*time.Millisecond)
}

func TestStopClosesPayloads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, statusFile), []byte("a"), 0o644))

	w := New(dir, statusFile, DefaultOptions(), nil)
	require.NoError(t, w.Start(context.Background()))
	next(t, w)

	require.NoError(t, w.Stop())
	_, ok := <-w.Payloads().Receive()
	assert.False(t, ok)
	assert.NoError(t, w.Stop(), "second stop is a no-op")
}

func TestStart_AfterStop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, statusFile), []byte("a"), 0o644))

	w := New(dir, statusFile, DefaultOptions(), nil)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())

	assert.ErrorIs(t, w.Start(context.Background()), ErrStopped)
	assert.NotPanics(t, func() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, statusFile), []byte("b"), 0o644))
		time.Sleep(50 * time.Millisecond)
	})
	_, ok := <-w.Payloads().Receive()
	assert.False(t, ok)
}
