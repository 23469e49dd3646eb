package linecount

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hhatto/gocloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func tree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write(t, dir, "main.go", "package main\n\n// entry point\nfunc main() {}\n")
	write(t, dir, "pkg/util.go", "package pkg\n\nfunc Util() int { return 1 }\n")
	write(t, dir, ".git/hooks/hook.go", "package hooks\n\nfunc Hook() {}\n")
	return dir
}

func findLang(r Result, name string) (Language, bool) {
	for _, l := range r.Languages {
		if l.Name == name {
			return l, true
		}
	}
	return Language{}, false
}

func TestCount_GoTree(t *testing.T) {
	res, err := New().Count(context.Background(), tree(t))
	require.NoError(t, err)

	goLang, ok := findLang(res, "Go")
	require.True(t, ok, "languages: %+v", res.Languages)
	assert.Equal(t, 2, goLang.Files, "vcs directories are skipped")
	assert.Equal(t, 4, goLang.Code)
	assert.Equal(t, 1, goLang.Comments)
	assert.Equal(t, 2, goLang.Blanks)
	assert.Equal(t, goLang.Code+goLang.Comments+goLang.Blanks, goLang.Lines)
	assert.Equal(t, res.Code, goLang.Code)
}

func TestCount_ExcludeExts(t *testing.T) {
	res, err := New(WithExcludeExts(".go")).Count(context.Background(), tree(t))
	require.NoError(t, err)
	_, ok := findLang(res, "Go")
	assert.False(t, ok)
	assert.Zero(t, res.Files)
}

func TestCount_EmptyTree(t *testing.T) {
	res, err := New().Count(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, res.Languages)
	assert.Zero(t, res.Lines)
}

func TestCount_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Count(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCount_SkipDuplicated(t *testing.T) {
	dir := t.TempDir()
	body := "package a\n\nfunc A() {}\n"
	write(t, dir, "a/a.go", body)
	write(t, dir, "b/a.go", body)

	all, err := New().Count(context.Background(), dir)
	require.NoError(t, err)
	once, err := New(WithSkipDuplicated()).Count(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 4, all.Code)
	assert.Equal(t, 2, once.Code)
}

func TestCount_CancelWaitsForWalk(t *testing.T) {
	release := make(chan struct{})
	var walked atomic.Bool
	c := New()
	c.analyze = func(string) (*gocloc.Result, error) {
		<-release
		walked.Store(true)
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan error, 1)
	go func() {
		_, err := c.Count(ctx, t.TempDir())
		returned <- err
	}()

	cancel()
	select {
	case <-returned:
		t.Fatal("Count returned while the walk was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-returned:
		assert.ErrorIs(t, err, context.Canceled)
		assert.True(t, walked.Load())
	case <-time.After(time.Second):
		t.Fatal("Count never returned")
	}
}
