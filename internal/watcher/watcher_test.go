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
)

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "created", EventTypeCreated.String())
	assert.Equal(t, "modified", EventTypeModified.String())
	assert.Equal(t, "deleted", EventTypeDeleted.String())
	assert.Equal(t, "renamed", EventTypeRenamed.String())
	assert.Equal(t, "unknown", EventType(9).String())
}

func TestNoVCSFilter(t *testing.T) {
	sep := string(filepath.Separator)
	assert.True(t, NoVCSFilter(filepath.Join("src", "main.c")))
	assert.False(t, NoVCSFilter(sep+filepath.Join("repo", ".git", "index")))
	assert.False(t, NoVCSFilter(filepath.Join("repo", ".svn")))
}

func TestDebouncerCoalesces(t *testing.T) {
	d := &Debouncer{delay: 20 * time.Millisecond, output: make(chan []ChangeEvent, 1)}

	d.add(ChangeEvent{Type: EventTypeCreated, Path: "b.c"})
	d.add(ChangeEvent{Type: EventTypeModified, Path: "a.c"})
	d.add(ChangeEvent{Type: EventTypeModified, Path: "b.c"})

	select {
	case events := <-d.output:
		require.Len(t, events, 2)
		assert.Equal(t, "a.c", events[0].Path)
		assert.Equal(t, "b.c", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestFileWatcherDeliversFilteredChanges(t *testing.T) {
	root := t.TempDir()
	fw, err := NewFileWatcher(30*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, fw.AddRecursive(root))

	fw.AddFilter(func(path string) bool { return filepath.Ext(path) == ".c" })

	var (
		mu  sync.Mutex
		got []string
	)
	received := make(chan struct{}, 4)
	fw.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		mu.Lock()
		for _, e := range events {
			got = append(got, filepath.Base(e.Path))
		}
		mu.Unlock()
		received <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	fw.Start(ctx)
	defer func() {
		cancel()
		_ = fw.Stop()
	}()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.c"), []byte("gets(s);\n"), 0644))

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, got, "main.c")
	assert.NotContains(t, got, "notes.txt")
}
