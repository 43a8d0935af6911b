package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestWatcherDebouncesAndFollowsNewCases(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	existing := filepath.Join(dir, "asm123_Genoscope")
	require.NoError(t, os.MkdirAll(existing, 0o755))

	changed := make(chan struct{}, 16)
	w, err := New(dir, 50*time.Millisecond, func(context.Context) { changed <- struct{}{} }, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for _, f := range []string{"inversion_asm123_Genoscope_01.png", "inversion_asm123_Genoscope_01.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(existing, f), []byte("x"), 0o644))
	}
	waitFor(t, changed, "change in existing case")

	added := filepath.Join(dir, "xyz9_Sanger")
	require.NoError(t, os.MkdirAll(added, 0o755))
	waitFor(t, changed, "new case folder")

	// Drain anything left over from the mkdir burst before writing inside it.
	time.Sleep(100 * time.Millisecond)
	for len(changed) > 0 {
		<-changed
	}
	require.NoError(t, os.WriteFile(filepath.Join(added, "duplication_xyz9_Sanger_01.png"), []byte("x"), 0o644))
	waitFor(t, changed, "change inside new case")
}

func TestWatcherStartOnMissingDir(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(filepath.Join(t.TempDir(), "missing"), 0, func(context.Context) {}, nil)
	require.NoError(t, err)
	require.Error(t, w.Start(context.Background()))
	w.Stop()
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := New(t.TempDir(), 0, func(context.Context) {}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	cancel()
	w.Stop()
}
