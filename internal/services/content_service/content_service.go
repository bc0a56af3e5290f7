package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"sitecontent/internal/domain/models"
	"sitecontent/internal/lib/logger/sl"
	"sitecontent/internal/metrics"
	"sitecontent/internal/repository"
	"sitecontent/internal/storage"
)

// MaxSearchResults ограничивает выдачу поиска
const MaxSearchResults = 5

type ContentService struct {
	log  *slog.Logger
	repo repository.DocumentRepository

	// createMu сериализует проверку слага и создание в коллекциях с датой в ключе
	createMu sync.Mutex
}

func NewContentService(log *slog.Logger, repo repository.DocumentRepository) *ContentService {
	return &ContentService{log: log, repo: repo}
}

// Create сохраняет новый документ и возвращает его ключ хранения.
// Существующий документ с тем же ключом никогда не перезаписывается.
func (s *ContentService) Create(ctx context.Context, collection string, in models.DocumentInput) (string, error) {
	const op = "content_service.Create"
	log := s.log.With(
		slog.String("op", op),
		slog.String("collection", collection),
	)

	c, err := lookupCollection(collection)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	verr := &models.ValidationError{Collection: c.Name}
	fields := validateFields(c, in.Fields, verr)
	validateBody(c, in.Body, verr)
	slug := resolveSlug(in.Slug, in.Fields, verr)
	if !verr.Empty() {
		log.Warn("invalid document", sl.Err(verr))
		s.record(c, "create", verr)
		return "", fmt.Errorf("%s: %w", op, verr)
	}

	key, err := c.StorageKey(slug, fields)
	if err != nil {
		verr.Invalid = append(verr.Invalid, models.FieldError{Field: c.DateField, Reason: err.Error()})
		s.record(c, "create", verr)
		return "", fmt.Errorf("%s: %w", op, verr)
	}
	log = log.With(slog.String("key", key))

	if c.DatePrefixed {
		s.createMu.Lock()
		defer s.createMu.Unlock()

		if err := s.checkSlugFree(ctx, c, slug); err != nil {
			s.record(c, "create", err)
			if errors.Is(err, storage.ErrDocumentExists) {
				log.Warn("slug already taken", sl.Err(err))
			} else {
				log.Error("failed to list collection", sl.Err(err))
			}
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	doc := models.Document{
		Collection: c.Name,
		Key:        key,
		Slug:       slug,
		Metadata:   fields,
	}
	if in.Body != nil {
		doc.Body = *in.Body
	}

	err = s.repo.CreateDocument(ctx, c, doc)
	s.record(c, "create", err)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentExists) {
			log.Warn("document already exists")
		} else {
			log.Error("failed to create document", sl.Err(err))
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("document created")
	return key, nil
}

// Update полностью заменяет метаданные документа. Тело заменяется, только
// если оно передано; иначе сохраняется прежнее.
func (s *ContentService) Update(ctx context.Context, collection, key string, in models.DocumentInput) error {
	const op = "content_service.Update"
	log := s.log.With(
		slog.String("op", op),
		slog.String("collection", collection),
		slog.String("key", key),
	)

	c, err := lookupCollection(collection)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	verr := &models.ValidationError{Collection: c.Name}
	fields := validateFields(c, in.Fields, verr)
	validateBody(c, in.Body, verr)
	validateKeyDate(c, key, fields, verr)
	if !verr.Empty() {
		log.Warn("invalid document", sl.Err(verr))
		s.record(c, "update", verr)
		return fmt.Errorf("%s: %w", op, verr)
	}

	doc := models.Document{
		Collection: c.Name,
		Key:        key,
		Slug:       c.SlugFromKey(key),
		Metadata:   fields,
	}

	switch {
	case in.Body != nil:
		doc.Body = *in.Body
	case c.HasBody:
		existing, err := s.repo.GetDocument(ctx, c, key)
		switch {
		case err == nil:
			doc.Body = existing.Body
		case errors.Is(err, storage.ErrMalformedDocument):
			// битый файл можно починить обновлением, но тело из него не восстановить
			log.Warn("existing document is malformed, body dropped", sl.Err(err))
		default:
			s.record(c, "update", err)
			if !errors.Is(err, storage.ErrDocumentNotFound) {
				log.Error("failed to read document", sl.Err(err))
			}
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	err = s.repo.UpdateDocument(ctx, c, doc)
	s.record(c, "update", err)
	if err != nil {
		if !errors.Is(err, storage.ErrDocumentNotFound) {
			log.Error("failed to update document", sl.Err(err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("document updated")
	return nil
}

func (s *ContentService) Delete(ctx context.Context, collection, key string) error {
	const op = "content_service.Delete"
	log := s.log.With(
		slog.String("op", op),
		slog.String("collection", collection),
		slog.String("key", key),
	)

	c, err := lookupCollection(collection)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.repo.DeleteDocument(ctx, c, key)
	s.record(c, "delete", err)
	if err != nil {
		if !errors.Is(err, storage.ErrDocumentNotFound) {
			log.Error("failed to delete document", sl.Err(err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("document deleted")
	return nil
}

// Get возвращает документ по ключу. Битый файл отдаётся как ошибка хранилища.
func (s *ContentService) Get(ctx context.Context, collection, key string) (models.Document, error) {
	const op = "content_service.Get"

	c, err := lookupCollection(collection)
	if err != nil {
		return models.Document{}, fmt.Errorf("%s: %w", op, err)
	}

	doc, err := s.repo.GetDocument(ctx, c, key)
	s.record(c, "get", err)
	if err != nil {
		if !errors.Is(err, storage.ErrDocumentNotFound) {
			s.log.Error("failed to read document",
				slog.String("op", op),
				slog.String("collection", c.Name),
				slog.String("key", key),
				sl.Err(err),
			)
		}
		return models.Document{}, fmt.Errorf("%s: %w", op, err)
	}

	return doc, nil
}

// List возвращает ленивую последовательность документов коллекции в порядке
// имён файлов. Каждый обход заново читает каталог. Битые файлы пропускаются
// и попадают только в лог, поэтому ошибка возможна лишь для неизвестной коллекции.
func (s *ContentService) List(ctx context.Context, collection string) (iter.Seq[models.Document], error) {
	const op = "content_service.List"

	c, err := lookupCollection(collection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.documents(ctx, c), nil
}

// ListVisible отдаёт только опубликованные (видимые) документы, при непустом
// category ещё и с совпадающей категорией без учёта регистра.
func (s *ContentService) ListVisible(ctx context.Context, collection, category string) (iter.Seq[models.Document], error) {
	const op = "content_service.ListVisible"

	c, err := lookupCollection(collection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	category = strings.TrimSpace(category)
	all := s.documents(ctx, c)

	return func(yield func(models.Document) bool) {
		for doc := range all {
			if !isVisible(c, doc) {
				continue
			}
			if category != "" && !strings.EqualFold(doc.String(c.CategoryField), category) {
				continue
			}
			if !yield(doc) {
				return
			}
		}
	}, nil
}

// Search ищет подстроку без учёта регистра в полях поиска коллекции и
// возвращает не больше MaxSearchResults документов. Пустой запрос даёт пустой результат.
func (s *ContentService) Search(ctx context.Context, collection, query string) ([]models.Document, error) {
	const op = "content_service.Search"

	c, err := lookupCollection(collection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.search(ctx, c, query, false), nil
}

// SearchVisible как Search, но среди видимых документов.
func (s *ContentService) SearchVisible(ctx context.Context, collection, query string) ([]models.Document, error) {
	const op = "content_service.SearchVisible"

	c, err := lookupCollection(collection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.search(ctx, c, query, true), nil
}

func (s *ContentService) search(ctx context.Context, c models.Collection, query string, visibleOnly bool) []models.Document {
	results := make([]models.Document, 0, MaxSearchResults)

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return results
	}

	for doc := range s.documents(ctx, c) {
		if visibleOnly && !isVisible(c, doc) {
			continue
		}
		if !matches(c, doc, needle) {
			continue
		}
		results = append(results, doc)
		if len(results) == MaxSearchResults {
			break
		}
	}

	s.log.Debug("search finished",
		slog.String("collection", c.Name),
		slog.String("query", query),
		slog.Int("results", len(results)),
	)
	return results
}

// checkSlugFree ищет слаг среди ключей коллекции: при ключе с датой
// одинаковый слаг может прятаться под другой датой.
func (s *ContentService) checkSlugFree(ctx context.Context, c models.Collection, slug string) error {
	keys, err := s.repo.DocumentKeys(ctx, c)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if models.IsStorageKey(key) && c.SlugFromKey(key) == slug {
			return fmt.Errorf("%w: slug %q is used by %s", storage.ErrDocumentExists, slug, key)
		}
	}

	return nil
}

func (s *ContentService) documents(ctx context.Context, c models.Collection) iter.Seq[models.Document] {
	const op = "content_service.documents"

	return func(yield func(models.Document) bool) {
		for doc, err := range s.repo.Documents(ctx, c) {
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					s.log.Debug("listing interrupted", slog.String("collection", c.Name), sl.Err(err))
					return
				}
				if errors.Is(err, storage.ErrCollectionUnreadable) {
					metrics.CollectionReadFailuresTotal.WithLabelValues(c.Name).Inc()
					s.log.Error("failed to read collection",
						slog.String("op", op),
						slog.String("collection", c.Name),
						sl.Err(err),
					)
					return
				}
				metrics.SkippedDocumentsTotal.WithLabelValues(c.Name).Inc()
				s.log.Warn("skipping unreadable document",
					slog.String("op", op),
					slog.String("collection", c.Name),
					slog.String("key", doc.Key),
					sl.Err(err),
				)
				continue
			}
			if !yield(doc) {
				return
			}
		}
	}
}

func (s *ContentService) record(c models.Collection, op string, err error) {
	metrics.DocumentOperationsTotal.WithLabelValues(c.Name, op, result(err)).Inc()
}

func result(err error) string {
	var verr *models.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, storage.ErrDocumentExists):
		return "conflict"
	case errors.Is(err, storage.ErrDocumentNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func lookupCollection(name string) (models.Collection, error) {
	c, ok := models.LookupCollection(name)
	if !ok {
		return models.Collection{}, fmt.Errorf("%w: %q", storage.ErrCollectionNotFound, name)
	}
	return c, nil
}

func isVisible(c models.Collection, doc models.Document) bool {
	if c.VisibilityField == "" {
		return true
	}
	return doc.Bool(c.VisibilityField)
}

func matches(c models.Collection, doc models.Document, needle string) bool {
	for _, field := range c.Searchable {
		value := doc.String(field)
		if field == "slug" {
			value = doc.Slug
		}
		if strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}
	return false
}
