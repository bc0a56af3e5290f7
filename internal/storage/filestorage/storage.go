package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sitecontent/internal/storage"
)

// FileStorage хранит каждый документ в отдельном файле внутри каталога коллекции
type FileStorage interface {
	Create(ctx context.Context, dir, name string, data []byte) error
	Replace(ctx context.Context, dir, name string, data []byte) error
	Read(ctx context.Context, dir, name string) ([]byte, error)
	Delete(ctx context.Context, dir, name string) error
	List(ctx context.Context, dir, ext string) ([]string, error)
	GetFullPath(relativePath string) string
	GetBaseDir() string
}

// LocalFileStorage реализация для локальной файловой системы.
// Файл никогда не виден читателям частично записанным: данные пишутся во
// временный файл того же каталога и публикуются через link или rename.
type LocalFileStorage struct {
	baseDir string // Базовый каталог контента (например: "./content")
}

func NewLocalFileStorage(baseDir string) (*LocalFileStorage, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
	}, nil
}

// Create publishes data under name only if nothing exists there yet. Of several
// concurrent creators exactly one succeeds; the rest get storage.ErrDocumentExists.
func (s *LocalFileStorage) Create(ctx context.Context, dir, name string, data []byte) error {
	const op = "filestorage.Create"

	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := s.writeTemp(dir, name, data)
	if err != nil {
		return &storage.StorageError{Op: op, Key: name, Err: err}
	}
	defer os.Remove(tmp)

	// link не перезаписывает существующий файл, в отличие от rename
	if err := os.Link(tmp, s.path(dir, name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return storage.ErrDocumentExists
		}
		return &storage.StorageError{Op: op, Key: name, Err: err}
	}

	syncDir(s.GetFullPath(dir))
	return nil
}

// Replace atomically swaps the content of an existing unit. Concurrent writers
// race with last-writer-wins.
func (s *LocalFileStorage) Replace(ctx context.Context, dir, name string, data []byte) error {
	const op = "filestorage.Replace"

	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.path(dir, name)
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrDocumentNotFound
		}
		return &storage.StorageError{Op: op, Key: name, Err: err}
	}

	tmp, err := s.writeTemp(dir, name, data)
	if err != nil {
		return &storage.StorageError{Op: op, Key: name, Err: err}
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return &storage.StorageError{Op: op, Key: name, Err: err}
	}

	syncDir(s.GetFullPath(dir))
	return nil
}

func (s *LocalFileStorage) Read(ctx context.Context, dir, name string) ([]byte, error) {
	const op = "filestorage.Read"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, &storage.StorageError{Op: op, Key: name, Err: err}
	}

	return data, nil
}

// Delete удаляет файл из хранилища
func (s *LocalFileStorage) Delete(ctx context.Context, dir, name string) error {
	const op = "filestorage.Delete"

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path(dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrDocumentNotFound
		}
		return &storage.StorageError{Op: op, Key: name, Err: err}
	}

	syncDir(s.GetFullPath(dir))
	return nil
}

// List returns the names of regular files in dir with the given extension,
// sorted by name. Hidden files (including in-flight temp files) are skipped.
// A missing directory is an empty collection.
func (s *LocalFileStorage) List(ctx context.Context, dir, ext string) ([]string, error) {
	const op = "filestorage.List"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.GetFullPath(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &storage.StorageError{Op: op, Key: dir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ext {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// GetFullPath возвращает полный путь к файлу на диске
func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, relativePath)
}

func (s *LocalFileStorage) GetBaseDir() string {
	return s.baseDir
}

func (s *LocalFileStorage) path(dir, name string) string {
	return filepath.Join(s.baseDir, dir, name)
}

// writeTemp writes data to a hidden temp file next to the target and flushes it
// to disk, so a later link/rename never publishes a partial file.
func (s *LocalFileStorage) writeTemp(dir, name string, data []byte) (string, error) {
	full := s.GetFullPath(dir)
	if err := os.MkdirAll(full, 0755); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(full, "."+name+".tmp-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	return tmp, nil
}

// syncDir persists directory entry changes; not every platform supports it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
