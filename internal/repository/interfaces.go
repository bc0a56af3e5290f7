package repository

import (
	"context"
	"iter"

	"sitecontent/internal/domain/models"
)

type DocumentRepository interface {
	CreateDocument(ctx context.Context, c models.Collection, doc models.Document) error
	UpdateDocument(ctx context.Context, c models.Collection, doc models.Document) error
	DeleteDocument(ctx context.Context, c models.Collection, key string) error
	GetDocument(ctx context.Context, c models.Collection, key string) (models.Document, error)
	// DocumentKeys возвращает ключи всех файлов коллекции, не разбирая их.
	DocumentKeys(ctx context.Context, c models.Collection) ([]string, error)
	// Documents перечитывает каталог коллекции при каждом обходе.
	// Ошибка разбора одного файла отдаётся вместе с его ключом и не прерывает обход.
	Documents(ctx context.Context, c models.Collection) iter.Seq2[models.Document, error]
}
