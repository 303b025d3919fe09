package tokenfile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tokensync/pkg/tokens"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "tokens.json", "{}")
	b := writeFile(t, root, "design/brand.tokens.json", "{}")
	writeFile(t, root, "design/readme.md", "")
	writeFile(t, root, "node_modules/pkg/tokens.json", "{}")
	writeFile(t, root, "package.json", "{}")

	m, err := NewMatcher(nil, DefaultExclude)
	require.NoError(t, err)

	files, err := Discover(root, m)
	require.NoError(t, err)

	want := []string{a, b}
	for i := range want {
		want[i], _ = filepath.Abs(want[i])
	}
	assert.ElementsMatch(t, want, files)
}

func TestDiscover_CustomInclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tokens.json", "{}")
	c := writeFile(t, root, "themes/dark.json", "{}")

	m, err := NewMatcher([]string{"themes/*.json"}, nil)
	require.NoError(t, err)

	files, err := Discover(root, m)
	require.NoError(t, err)
	require.Len(t, files, 1)
	abs, _ := filepath.Abs(c)
	assert.Equal(t, abs, files[0])
}

func TestNewMatcher_InvalidPattern(t *testing.T) {
	_, err := NewMatcher([]string{"[unclosed"}, nil)
	assert.Error(t, err)

	_, err = NewMatcher(nil, []string{"{a,b"})
	assert.Error(t, err)
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher(nil, DefaultExclude)
	require.NoError(t, err)

	assert.True(t, m.Included("tokens.json"))
	assert.True(t, m.Included("a/b/colors.tokens.json"))
	assert.False(t, m.Included("node_modules/x/tokens.json"))
	assert.False(t, m.Included("tokens.yaml"))
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "tokens.json", `{"Color":{}}`)

	data, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, `{"Color":{}}`, string(data))

	empty := writeFile(t, root, "empty.json", "")
	data, err = Load(empty)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = Load(filepath.Join(root, "missing.json"))
	assert.Error(t, err)

	_, err = Load(root)
	assert.Error(t, err)
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "tokens.json", "{}")

	m, err := NewMatcher(nil, DefaultExclude)
	require.NoError(t, err)

	var mu sync.Mutex
	var calls [][]string
	w, err := NewWatcher(root, m, 50*time.Millisecond, func(paths []string) {
		mu.Lock()
		calls = append(calls, paths)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"n":1}`), 0o644))
		time.Sleep(5 * time.Millisecond)
	}
	writeFile(t, root, "notes.txt", "ignored")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) > 0
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 1)
	assert.Equal(t, []string{path}, calls[0])
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(nil, nil)
	require.NoError(t, err)

	w, err := NewWatcher(root, m, 0, func([]string) {}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestBatch_LoadAll(t *testing.T) {
	root := t.TempDir()
	good := writeFile(t, root, "a/tokens.json", `{"Primitives": {"Light": {"Gap": {"$type": "number", "$value": 4}}}}`)
	bad := writeFile(t, root, "b/tokens.json", `[1, 2]`)
	broken := writeFile(t, root, "c/tokens.json", `{nope`)
	missing := filepath.Join(root, "d", "tokens.json")

	b := NewBatch(2, nil)
	out := b.LoadAll(context.Background(), []string{good, bad, broken, missing})
	require.Len(t, out, 4)

	assert.Equal(t, good, out[0].Path)
	require.NoError(t, out[0].Err)
	require.Len(t, out[0].Doc.Collections, 1)
	assert.Equal(t, "Primitives", out[0].Doc.Collections[0].Name)

	assert.ErrorIs(t, out[1].Err, tokens.ErrNotObject)
	assert.Error(t, out[2].Err)
	assert.Error(t, out[3].Err)

	stats := b.Stats()
	assert.Equal(t, 2, stats.NumWorkers)
	assert.EqualValues(t, 1, stats.Loaded)
	assert.EqualValues(t, 3, stats.Failed)
}

func TestBatch_CancelledContext(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "tokens.json", `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := NewBatch(0, nil).LoadAll(ctx, []string{path, path})
	for _, l := range out {
		assert.ErrorIs(t, l.Err, context.Canceled)
	}
	assert.Empty(t, NewBatch(0, nil).LoadAll(context.Background(), nil))
}
