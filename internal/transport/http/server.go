package http

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"sitecontent/internal/domain/models"
	"sitecontent/internal/lib/logger/sl"
	"sitecontent/internal/services/auth"
	"sitecontent/internal/storage"
	"sitecontent/internal/transport/http/dto"
	"sitecontent/internal/transport/http/dto/request"
	"sitecontent/internal/transport/http/dto/response"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	SessionName = "session"

	// AdminKey ключ в echo.Context и в сессии, по которому узнаём администратора
	AdminKey = "admin"

	defaultPerPage = 10
)

type ContentService interface {
	Create(ctx context.Context, collection string, in models.DocumentInput) (string, error)
	Update(ctx context.Context, collection, key string, in models.DocumentInput) error
	Delete(ctx context.Context, collection, key string) error
	Get(ctx context.Context, collection, key string) (models.Document, error)
	List(ctx context.Context, collection string) (iter.Seq[models.Document], error)
	ListVisible(ctx context.Context, collection, category string) (iter.Seq[models.Document], error)
	Search(ctx context.Context, collection, query string) ([]models.Document, error)
	SearchVisible(ctx context.Context, collection, query string) ([]models.Document, error)
}

type RouteService interface {
	Lookup(path, lang string) (string, bool)
	Canonical(path, lang string) (string, bool)
	Languages() []string
}

type AuthService interface {
	Login(ctx context.Context, ip, user, password string) (string, error)
	ParseToken(token string) (string, error)
}

type Routers struct {
	log            *slog.Logger
	ContentService ContentService
	RouteService   RouteService
	AuthService    AuthService
}

func NewRouter(log *slog.Logger, contentService ContentService, routeService RouteService, authService AuthService) *Routers {
	return &Routers{
		log:            log,
		ContentService: contentService,
		RouteService:   routeService,
		AuthService:    authService,
	}
}

// IsAdmin сообщает, прошёл ли запрос проверку администратора.
func IsAdmin(c echo.Context) bool {
	admin, _ := c.Get(AdminKey).(bool)
	return admin
}

// Login проверяет логин и пароль администратора, открывает сессию и
// возвращает bearer-токен для API-клиентов.
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid format request", slog.String("username", req.Username))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	token, err := r.AuthService.Login(c.Request().Context(), c.RealIP(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrTooManyAttempts) {
			return c.JSON(http.StatusTooManyRequests, response.ErrTooManyAttempts)
		}
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
		}
		log.Error("login failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	sess, err := session.Get(SessionName, c)
	if err != nil {
		log.Error("failed to get session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}
	sess.Values[AdminKey] = req.Username
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		log.Error("failed to save session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{
		"access_token": token,
		"token_type":   "Bearer",
	}))
}

func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	sess, err := session.Get(SessionName, c)
	if err == nil {
		delete(sess.Values, AdminKey)
		sess.Options.MaxAge = -1
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			r.log.Error("failed to clear session", slog.String("op", op), sl.Err(err))
		}
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success", Message: "logged out"})
}

// ListDocuments отдаёт страницу видимых документов коллекции.
func (r *Routers) ListDocuments(c echo.Context) error {
	const op = "http.routers.ListDocuments"

	return r.listDocuments(c, op, func(ctx context.Context, collection, category string) (iter.Seq[models.Document], error) {
		return r.ContentService.ListVisible(ctx, collection, category)
	})
}

// ListAllDocuments отдаёт администратору все документы, включая скрытые.
func (r *Routers) ListAllDocuments(c echo.Context) error {
	const op = "http.routers.ListAllDocuments"

	return r.listDocuments(c, op, func(ctx context.Context, collection, category string) (iter.Seq[models.Document], error) {
		seq, err := r.ContentService.List(ctx, collection)
		if err != nil || category == "" {
			return seq, err
		}
		col, _ := models.LookupCollection(collection)
		return func(yield func(models.Document) bool) {
			for doc := range seq {
				if strings.EqualFold(doc.String(col.CategoryField), category) && !yield(doc) {
					return
				}
			}
		}, nil
	})
}

func (r *Routers) listDocuments(c echo.Context, op string, list func(ctx context.Context, collection, category string) (iter.Seq[models.Document], error)) error {
	log := r.log.With(
		slog.String("op", op),
		slog.String("collection", c.Param("collection")),
	)

	var query dto.ListDocumentsQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(query); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 {
		query.PerPage = defaultPerPage
	}

	seq, err := list(c.Request().Context(), c.Param("collection"), query.Category)
	if err != nil {
		return r.contentError(c, log, err)
	}

	var since string
	if query.Since != "" {
		// формат уже проверен тегом isodate
		since, _ = models.NormalizeDate(query.Since)
	}
	col, _ := models.LookupCollection(c.Param("collection"))

	from := (query.Page - 1) * query.PerPage
	to := from + query.PerPage

	resp := dto.DocumentListResponse{
		Documents: make([]dto.DocumentResponse, 0, query.PerPage),
		Page:      query.Page,
		PerPage:   query.PerPage,
	}
	for doc := range seq {
		if since != "" {
			date, err := models.NormalizeDate(doc.String(col.DateField))
			if err != nil || date < since {
				continue
			}
		}
		if resp.Total >= from && resp.Total < to {
			resp.Documents = append(resp.Documents, dto.NewDocumentResponse(doc))
		}
		resp.Total++
	}
	resp.TotalPages = (resp.Total + query.PerPage - 1) / query.PerPage

	return c.JSON(http.StatusOK, resp)
}

func (r *Routers) Collections(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.CollectionsResponse{Collections: models.CollectionNames()})
}

// GetDocument отдаёт документ по ключу. Скрытые документы видны только администратору.
func (r *Routers) GetDocument(c echo.Context) error {
	const op = "http.routers.GetDocument"

	collection, key := c.Param("collection"), c.Param("key")
	log := r.log.With(
		slog.String("op", op),
		slog.String("collection", collection),
		slog.String("key", key),
	)

	doc, err := r.ContentService.Get(c.Request().Context(), collection, key)
	if err != nil {
		return r.contentError(c, log, err)
	}

	if !IsAdmin(c) {
		if col, ok := models.LookupCollection(collection); ok && col.VisibilityField != "" && !doc.Bool(col.VisibilityField) {
			return c.JSON(http.StatusNotFound, response.ErrDocumentNotFound)
		}
	}

	return c.JSON(http.StatusOK, dto.NewDocumentResponse(doc))
}

func (r *Routers) SearchDocuments(c echo.Context) error {
	const op = "http.routers.SearchDocuments"

	collection := c.Param("collection")
	log := r.log.With(
		slog.String("op", op),
		slog.String("collection", collection),
	)

	var query dto.SearchQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	search := r.ContentService.SearchVisible
	if IsAdmin(c) {
		search = r.ContentService.Search
	}

	docs, err := search(c.Request().Context(), collection, query.Query)
	if err != nil {
		return r.contentError(c, log, err)
	}

	resp := dto.SearchResponse{
		Query:     query.Query,
		Documents: make([]dto.DocumentResponse, 0, len(docs)),
	}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, dto.NewDocumentResponse(doc))
	}

	return c.JSON(http.StatusOK, resp)
}

func (r *Routers) CreateDocument(c echo.Context) error {
	const op = "http.routers.CreateDocument"

	collection := c.Param("collection")
	log := r.log.With(
		slog.String("op", op),
		slog.String("collection", collection),
	)

	var req dto.DocumentRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	key, err := r.ContentService.Create(c.Request().Context(), collection, req.Input())
	if err != nil {
		return r.contentError(c, log, err)
	}

	log.Info("document created", slog.String("key", key))

	return c.JSON(http.StatusCreated, dto.CreateDocumentResponse{
		Collection: collection,
		Key:        key,
	})
}

func (r *Routers) UpdateDocument(c echo.Context) error {
	const op = "http.routers.UpdateDocument"

	collection, key := c.Param("collection"), c.Param("key")
	log := r.log.With(
		slog.String("op", op),
		slog.String("collection", collection),
		slog.String("key", key),
	)

	var req dto.DocumentRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	if err := r.ContentService.Update(c.Request().Context(), collection, key, req.Input()); err != nil {
		return r.contentError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success", Message: "document updated"})
}

func (r *Routers) DeleteDocument(c echo.Context) error {
	const op = "http.routers.DeleteDocument"

	collection, key := c.Param("collection"), c.Param("key")
	log := r.log.With(
		slog.String("op", op),
		slog.String("collection", collection),
		slog.String("key", key),
	)

	if err := r.ContentService.Delete(c.Request().Context(), collection, key); err != nil {
		return r.contentError(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// TranslateRoute возвращает локализованный путь; внешние и непереведённые пути отдаются как есть.
func (r *Routers) TranslateRoute(c echo.Context) error {
	return r.resolveRoute(c, r.RouteService.Lookup)
}

func (r *Routers) CanonicalRoute(c echo.Context) error {
	return r.resolveRoute(c, r.RouteService.Canonical)
}

func (r *Routers) Languages(c echo.Context) error {
	return c.JSON(http.StatusOK, response.SuccessResponse(map[string][]string{
		"languages": r.RouteService.Languages(),
	}))
}

func (r *Routers) resolveRoute(c echo.Context, resolve func(path, lang string) (string, bool)) error {
	var query dto.RouteQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(query); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	result, ok := resolve(query.Path, query.Lang)

	return c.JSON(http.StatusOK, dto.RouteResponse{
		Path:       query.Path,
		Lang:       query.Lang,
		Result:     result,
		Translated: ok,
	})
}

func (r *Routers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// contentError переводит ошибки хранилища в HTTP-ответы.
func (r *Routers) contentError(c echo.Context, log *slog.Logger, err error) error {
	var verr *models.ValidationError

	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, response.NewValidationErrorResponse(verr))
	case errors.Is(err, storage.ErrCollectionNotFound):
		return c.JSON(http.StatusNotFound, response.ErrCollectionNotFound.WithDetails(c.Param("collection")))
	case errors.Is(err, storage.ErrDocumentNotFound):
		return c.JSON(http.StatusNotFound, response.ErrDocumentNotFound)
	case errors.Is(err, storage.ErrDocumentExists):
		return c.JSON(http.StatusConflict, response.ErrDocumentExists)
	default:
		log.Error("content operation failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}
}
