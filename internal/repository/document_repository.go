package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"sitecontent/internal/domain/models"
	"sitecontent/internal/lib/frontmatter"
	"sitecontent/internal/storage"
	filestorage "sitecontent/internal/storage/filestorage"
)

const documentExt = ".md"

type DocumentRepo struct {
	fs filestorage.FileStorage
}

func NewDocumentRepository(fs filestorage.FileStorage) *DocumentRepo {
	return &DocumentRepo{fs: fs}
}

func (r *DocumentRepo) CreateDocument(ctx context.Context, c models.Collection, doc models.Document) error {
	const op = "repository.document_repository.CreateDocument"

	data, err := encodeDocument(c, doc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.fs.Create(ctx, c.Dir, doc.Key+documentExt, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *DocumentRepo) UpdateDocument(ctx context.Context, c models.Collection, doc models.Document) error {
	const op = "repository.document_repository.UpdateDocument"

	if !models.IsStorageKey(doc.Key) {
		return fmt.Errorf("%s: %w", op, storage.ErrDocumentNotFound)
	}

	data, err := encodeDocument(c, doc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.fs.Replace(ctx, c.Dir, doc.Key+documentExt, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *DocumentRepo) DeleteDocument(ctx context.Context, c models.Collection, key string) error {
	const op = "repository.document_repository.DeleteDocument"

	if !models.IsStorageKey(key) {
		return fmt.Errorf("%s: %w", op, storage.ErrDocumentNotFound)
	}

	if err := r.fs.Delete(ctx, c.Dir, key+documentExt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *DocumentRepo) GetDocument(ctx context.Context, c models.Collection, key string) (models.Document, error) {
	const op = "repository.document_repository.GetDocument"

	if !models.IsStorageKey(key) {
		return models.Document{}, fmt.Errorf("%s: %w", op, storage.ErrDocumentNotFound)
	}

	data, err := r.fs.Read(ctx, c.Dir, key+documentExt)
	if err != nil {
		return models.Document{}, fmt.Errorf("%s: %w", op, err)
	}

	doc, err := decodeDocument(c, key, data)
	if err != nil {
		return models.Document{}, fmt.Errorf("%s: %w", op, err)
	}

	return doc, nil
}

func (r *DocumentRepo) DocumentKeys(ctx context.Context, c models.Collection) ([]string, error) {
	const op = "repository.document_repository.DocumentKeys"

	names, err := r.fs.List(ctx, c.Dir, documentExt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, listError(ctx, err))
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, strings.TrimSuffix(name, documentExt))
	}

	return keys, nil
}

func (r *DocumentRepo) Documents(ctx context.Context, c models.Collection) iter.Seq2[models.Document, error] {
	const op = "repository.document_repository.Documents"

	return func(yield func(models.Document, error) bool) {
		names, err := r.fs.List(ctx, c.Dir, documentExt)
		if err != nil {
			yield(models.Document{Collection: c.Name}, fmt.Errorf("%s: %w", op, listError(ctx, err)))
			return
		}

		for _, name := range names {
			key := strings.TrimSuffix(name, documentExt)
			if !models.IsStorageKey(key) {
				if !yield(models.Document{Collection: c.Name, Key: key}, fmt.Errorf("%s: %s: %w", op, key, storage.ErrMalformedDocument)) {
					return
				}
				continue
			}

			doc, err := r.GetDocument(ctx, c, key)
			switch {
			case errors.Is(err, storage.ErrDocumentNotFound):
				// удалён между чтением каталога и чтением файла
				continue
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				yield(models.Document{Collection: c.Name, Key: key}, err)
				return
			case err != nil:
				doc = models.Document{Collection: c.Name, Key: key}
			}

			if !yield(doc, err) {
				return
			}
		}
	}
}

// listError помечает сбой чтения каталога; отмена контекста остаётся как есть.
func listError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %w", storage.ErrCollectionUnreadable, err)
}

func encodeDocument(c models.Collection, doc models.Document) ([]byte, error) {
	fields := make([]frontmatter.Field, 0, len(c.Fields))
	for _, spec := range c.Fields {
		v, ok := doc.Metadata[spec.Name]
		if !ok || v == nil {
			continue
		}
		fields = append(fields, frontmatter.Field{Key: spec.Name, Value: v})
	}

	body := ""
	if c.HasBody {
		body = doc.Body
	}

	return frontmatter.Marshal(fields, body)
}

// decodeDocument проверяет файл по схеме коллекции: неизвестные поля,
// отсутствующие обязательные поля и значения не того типа делают файл битым.
func decodeDocument(c models.Collection, key string, data []byte) (models.Document, error) {
	fields, body, err := frontmatter.Unmarshal(data)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %s: %v", storage.ErrMalformedDocument, key, err)
	}

	metadata := make(map[string]any, len(fields))
	for _, f := range fields {
		spec, ok := c.Field(f.Key)
		if !ok {
			return models.Document{}, fmt.Errorf("%w: %s: unknown field %q", storage.ErrMalformedDocument, key, f.Key)
		}
		if f.Value == nil {
			continue
		}
		if err := checkKind(spec, f.Value); err != nil {
			return models.Document{}, fmt.Errorf("%w: %s: %v", storage.ErrMalformedDocument, key, err)
		}
		metadata[f.Key] = f.Value
	}

	for _, spec := range c.Fields {
		if _, ok := metadata[spec.Name]; spec.Required && !ok {
			return models.Document{}, fmt.Errorf("%w: %s: missing field %q", storage.ErrMalformedDocument, key, spec.Name)
		}
	}

	doc := models.Document{
		Collection: c.Name,
		Key:        key,
		Slug:       c.SlugFromKey(key),
		Metadata:   metadata,
	}
	if c.HasBody {
		doc.Body = body
	}

	return doc, nil
}

func checkKind(spec models.FieldSpec, v any) error {
	switch spec.Kind {
	case models.KindBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("field %q: expected bool", spec.Name)
		}
	case models.KindDate:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %q: expected date", spec.Name)
		}
		if _, err := models.NormalizeDate(s); err != nil {
			return fmt.Errorf("field %q: %v", spec.Name, err)
		}
	default:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("field %q: expected string", spec.Name)
		}
	}
	return nil
}
