package storage_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"sitecontent/internal/storage"
	filestorage "sitecontent/internal/storage/filestorage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFileStorage(t *testing.T) *filestorage.LocalFileStorage {
	t.Helper()

	fs, err := filestorage.NewLocalFileStorage(t.TempDir())
	require.NoError(t, err)

	return fs
}

func TestLocalFileStorage_Create(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()

	t.Run("successful create", func(t *testing.T) {
		err := fs.Create(ctx, "blog", "hello.md", []byte("content"))
		require.NoError(t, err)

		data, err := os.ReadFile(fs.GetFullPath(filepath.Join("blog", "hello.md")))
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
	})

	t.Run("existing name is not overwritten", func(t *testing.T) {
		err := fs.Create(ctx, "blog", "hello.md", []byte("other"))
		assert.ErrorIs(t, err, storage.ErrDocumentExists)

		data, err := fs.Read(ctx, "blog", "hello.md")
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(fs.GetFullPath("blog"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "hello.md", entries[0].Name())
	})

	t.Run("context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel() // Отменяем контекст сразу

		err := fs.Create(ctx, "blog", "cancelled.md", []byte("x"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalFileStorage_Replace(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		err := fs.Replace(ctx, "gallery", "nope.md", []byte("x"))
		assert.ErrorIs(t, err, storage.ErrDocumentNotFound)

		_, err = os.Stat(fs.GetFullPath(filepath.Join("gallery", "nope.md")))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("replaces content", func(t *testing.T) {
		require.NoError(t, fs.Create(ctx, "gallery", "photo.md", []byte("v1")))
		require.NoError(t, fs.Replace(ctx, "gallery", "photo.md", []byte("v2")))

		data, err := fs.Read(ctx, "gallery", "photo.md")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})
}

func TestLocalFileStorage_Delete(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()

	require.NoError(t, fs.Create(ctx, "blog", "to-delete.md", []byte("content")))

	t.Run("successful delete", func(t *testing.T) {
		err := fs.Delete(ctx, "blog", "to-delete.md")
		assert.NoError(t, err)

		_, err = os.Stat(fs.GetFullPath(filepath.Join("blog", "to-delete.md")))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("delete non-existent file", func(t *testing.T) {
		err := fs.Delete(ctx, "blog", "to-delete.md")
		assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
	})
}

func TestLocalFileStorage_List(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()

	t.Run("missing directory is empty", func(t *testing.T) {
		names, err := fs.List(ctx, "blog", ".md")
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("sorted, filtered by extension, hidden skipped", func(t *testing.T) {
		dir := fs.GetFullPath("blog")
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.md"), 0755))
		for _, name := range []string{"b.md", "a.md", "notes.txt", ".a.md.tmp-123"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
		}

		names, err := fs.List(ctx, "blog", ".md")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.md", "b.md"}, names)
	})
}

func TestNewLocalFileStorage(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		tempDir := filepath.Join(t.TempDir(), "content")

		fs, err := filestorage.NewLocalFileStorage(tempDir)
		require.NoError(t, err)
		assert.Equal(t, tempDir, fs.GetBaseDir())

		info, err := os.Stat(tempDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("base dir is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0644))

		_, err := filestorage.NewLocalFileStorage(file)
		assert.Error(t, err)
	})
}

func TestConcurrentCreates(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()

	const writers = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := fs.Create(ctx, "blog", "race.md", []byte(fmt.Sprintf("writer-%d", i)))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, storage.ErrDocumentExists):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, writers-1, conflicts)
}

func TestConcurrentReplacesNeverTear(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()

	const size = 256 << 10
	payload := func(b byte) []byte { return bytes.Repeat([]byte{b}, size) }

	require.NoError(t, fs.Create(ctx, "gallery", "big.md", payload('a')))

	var wg sync.WaitGroup
	for _, b := range []byte("bcdefgh") {
		wg.Add(1)
		go func(b byte) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				assert.NoError(t, fs.Replace(ctx, "gallery", "big.md", payload(b)))
			}
		}(b)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			return
		default:
		}

		data, err := fs.Read(ctx, "gallery", "big.md")
		require.NoError(t, err)
		require.Len(t, data, size)
		assert.Equal(t, payload(data[0]), data, "reader observed interleaved writes")
	}
}
