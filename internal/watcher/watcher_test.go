package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skysheet/internal/config"
	"skysheet/internal/processor"
)

type recorder struct {
	mu      sync.Mutex
	results []*processor.Result
}

func (r *recorder) add(result *processor.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var paths []string
	for _, result := range r.results {
		paths = append(paths, filepath.Base(result.Path))
	}
	return paths
}

func start(t *testing.T, cfg *config.Config, targets ...string) *recorder {
	t.Helper()

	w, err := New(processor.New(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	w.Debounce = 50 * time.Millisecond
	rec := &recorder{}
	w.OnResult = rec.add

	for _, target := range targets {
		require.NoError(t, w.Add(target))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return rec
}

func TestWatchDirectory(t *testing.T) {
	dir := t.TempDir()
	rec := start(t, nil, dir)

	src := filepath.Join(dir, "song.json")
	require.NoError(t, os.WriteFile(src, []byte(`{ "a" : 1 }`), 0644))

	out := filepath.Join(dir, "song.skysheet")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && string(data) == `{"a":1}`
	}, 5*time.Second, 20*time.Millisecond)

	// The output is itself eligible, but it was written by us.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, []string{"song.json"}, rec.paths())
	assert.FileExists(t, filepath.Join(dir, "backup", "song.json.bak"))
}

func TestWatchIgnoresIneligibleFiles(t *testing.T) {
	dir := t.TempDir()
	rec := start(t, nil, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.png"), []byte("png"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("a b"), 0644))

	require.Eventually(t, func() bool {
		return len(rec.paths()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"notes.txt"}, rec.paths())
	assert.NoFileExists(t, filepath.Join(dir, "cover.skysheet"))
}

func TestWatchNewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	rec := start(t, nil, dir)

	sub := filepath.Join(dir, "songs")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Give the watcher a moment to pick up the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.json"), []byte(`[ 1 , 2 ]`), 0644))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(sub, "a.skysheet"))
		return err == nil && string(data) == `[1,2]`
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, rec.paths(), "a.json")
}

func TestWatchExplicitFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sheet.dat")
	require.NoError(t, os.WriteFile(src, []byte(`x`), 0644))
	rec := start(t, nil, src)

	require.NoError(t, os.WriteFile(src, []byte(`{ "b" : 2 }`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{ }`), 0644))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(dir, "sheet.skysheet"))
		return err == nil && string(data) == `{"b":2}`
	}, 5*time.Second, 20*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"sheet.dat"}, rec.paths())
}

func TestWatchExcludedDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "drafts"), 0755))

	cfg := config.Default()
	cfg.Exclude = []string{"drafts/**"}
	rec := start(t, cfg, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "drafts", "d.json"), []byte(`{ }`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{ }`), 0644))

	require.Eventually(t, func() bool {
		return len(rec.paths()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"a.json"}, rec.paths())
}

func TestAddMissingPath(t *testing.T) {
	w, err := New(processor.New(nil))
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "missing")))
}
