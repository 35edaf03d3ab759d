package reload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher_TriggersOnceForBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	ref := filepath.Join(dir, "hsn.csv")
	require.NoError(t, os.WriteFile(ref, []byte("code,description\n"), 0o644))

	var calls atomic.Int32
	w, err := NewWatcher([]string{ref}, func(context.Context) error {
		calls.Add(1)
		return nil
	}, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(ref, []byte("code,description\n01,Live animals\n"), 0o644))
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// No further triggers without further writes.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.GreaterOrEqual(t, w.Stats().Events, 1)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	ref := filepath.Join(dir, "hsn.csv")
	require.NoError(t, os.WriteFile(ref, nil, 0o644))

	var calls atomic.Int32
	w, err := NewWatcher([]string{ref}, func(context.Context) error {
		calls.Add(1)
		return nil
	}, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	w.Stop()

	assert.Zero(t, calls.Load())
	assert.Zero(t, w.Stats().Events)
}

func TestWatcher_RecordsTriggerErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	ref := filepath.Join(dir, "hsn.csv")
	require.NoError(t, os.WriteFile(ref, nil, 0o644))

	w, err := NewWatcher([]string{ref}, func(context.Context) error {
		return errors.New("bad file")
	}, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(ref, []byte("x"), 0o644))
	require.Eventually(t, func() bool { return w.Stats().Reloads == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, w.Stats().Errors, 1)
}

func TestWatcher_StopOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ref := filepath.Join(t.TempDir(), "hsn.csv")
	require.NoError(t, os.WriteFile(ref, nil, 0o644))

	w, err := NewWatcher([]string{ref}, func(context.Context) error { return nil }, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	// Stop must still return promptly and release the fsnotify goroutines.
	w.Stop()
	w.Stop()
}

func TestWatcher_StartFailureLeavesStopUsable(t *testing.T) {
	defer goleak.VerifyNone(t)

	missing := filepath.Join(t.TempDir(), "gone", "hsn.csv")
	w, err := NewWatcher([]string{missing}, func(context.Context) error { return nil }, 0)
	require.NoError(t, err)

	require.Error(t, w.Start(context.Background()))

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}
