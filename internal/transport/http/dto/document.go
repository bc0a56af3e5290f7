package dto

import "sitecontent/internal/domain/models"

// DocumentRequest тело запроса на создание и обновление документа.
// Body == nil означает, что тело не передавалось.
type DocumentRequest struct {
	Slug   string         `json:"slug,omitempty" validate:"omitempty,slug"`
	Fields map[string]any `json:"fields" validate:"required"`
	Body   *string        `json:"body,omitempty"`
}

func (r DocumentRequest) Input() models.DocumentInput {
	return models.DocumentInput{
		Slug:   r.Slug,
		Fields: r.Fields,
		Body:   r.Body,
	}
}

type CreateDocumentResponse struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
}

type DocumentResponse struct {
	Collection string         `json:"collection"`
	Key        string         `json:"key"`
	Slug       string         `json:"slug"`
	Metadata   map[string]any `json:"metadata"`
	Body       string         `json:"body,omitempty"`
}

func NewDocumentResponse(doc models.Document) DocumentResponse {
	return DocumentResponse{
		Collection: doc.Collection,
		Key:        doc.Key,
		Slug:       doc.Slug,
		Metadata:   doc.Metadata,
		Body:       doc.Body,
	}
}

type ListDocumentsQuery struct {
	Category string `query:"category"`
	// Since отсекает документы с датой раньше указанной (по календарной дате)
	Since    string `query:"since" validate:"omitempty,isodate"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PerPage  int    `query:"per_page" validate:"omitempty,min=1,max=100"`
}

type DocumentListResponse struct {
	Documents  []DocumentResponse `json:"documents"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}

type CollectionsResponse struct {
	Collections []string `json:"collections"`
}

type SearchQuery struct {
	Query string `query:"q"`
}

type SearchResponse struct {
	Query     string             `json:"query"`
	Documents []DocumentResponse `json:"documents"`
}
