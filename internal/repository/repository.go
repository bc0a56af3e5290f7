package repository

import (
	"fmt"

	filestorage "sitecontent/internal/storage/filestorage"
)

type Repository struct {
	fs        filestorage.FileStorage
	Documents DocumentRepository
}

func NewRepository(baseDir string) (*Repository, error) {
	fs, err := filestorage.NewLocalFileStorage(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open content directory: %w", err)
	}

	return &Repository{
		fs:        fs,
		Documents: NewDocumentRepository(fs),
	}, nil
}

func (r *Repository) BaseDir() string {
	return r.fs.GetBaseDir()
}
