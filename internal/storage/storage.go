package storage

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentExists     = errors.New("document already exists")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrCollectionNotFound = errors.New("collection not found")
)

var (
	ErrMalformedDocument    = errors.New("malformed document")
	ErrCollectionUnreadable = errors.New("collection directory unreadable")
)

// StorageError оборачивает ошибку ввода-вывода для одного файла коллекции
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
