package httpapp_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpapp "sitecontent/internal/app/http"
	"sitecontent/internal/repository"
	"sitecontent/internal/services/auth"
	content "sitecontent/internal/services/content_service"
	routes "sitecontent/internal/services/route_service"
	httprouters "sitecontent/internal/transport/http"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "correct-horse"

func setupServer(t *testing.T) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := repository.NewRepository(t.TempDir())
	require.NoError(t, err)

	routeService, err := routes.New(log, map[string]map[string]string{
		"es": {"/about": "/sobre-nosotros"},
	})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	authService := auth.New(log, auth.Admin{User: "admin", PasswordHash: hash}, []byte("token-secret"), time.Hour, auth.NewLoginLimiter(3, time.Minute))

	routers := httprouters.NewRouter(log, content.NewContentService(log, repo.Documents), routeService, authService)
	server := httpapp.New(log, httpapp.Options{
		Port:          "0",
		Timeout:       time.Second,
		SessionSecret: "session-secret",
		SessionTTL:    time.Hour,
	}, routers)
	server.BuildRouters()

	return server.Handler()
}

type client struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
	token   string
}

func (c *client) do(method, target, body string) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func (c *client) login() string {
	c.t.Helper()

	rec := c.do(http.MethodPost, "/api/v1/login", `{"username":"admin","password":"`+adminPassword+`"}`)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	c.cookies = rec.Result().Cookies()

	return resp.Data.AccessToken
}

const galleryPayload = `{
	"slug": "harbour-lights",
	"fields": {
		"title": "Harbour lights",
		"image": "/images/harbour.jpg",
		"alt": "Boats at night",
		"category": "landscape",
		"date": "2024-07-14T21:30:00Z",
		"visible": true,
		"featured": false
	}
}`

func TestServer_AdminFlowWithSession(t *testing.T) {
	h := setupServer(t)
	c := &client{t: t, h: h}

	rec := c.do(http.MethodPost, "/api/v1/admin/collections/gallery/documents", galleryPayload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c.login()

	rec = c.do(http.MethodPost, "/api/v1/admin/collections/gallery/documents", galleryPayload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"key":"harbour-lights"`)

	rec = c.do(http.MethodPost, "/api/v1/admin/collections/gallery/documents", galleryPayload)
	assert.Equal(t, http.StatusConflict, rec.Code)

	public := &client{t: t, h: h}
	rec = public.do(http.MethodGet, "/api/v1/collections/gallery/documents/harbour-lights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"date":"2024-07-14T21:30:00Z"`)

	rec = public.do(http.MethodGet, "/api/v1/collections/gallery/search?q=HARBOUR", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "harbour-lights")

	rec = c.do(http.MethodDelete, "/api/v1/admin/collections/gallery/documents/harbour-lights", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = c.do(http.MethodDelete, "/api/v1/admin/collections/gallery/documents/harbour-lights", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	c.cookies = rec.Result().Cookies()

	rec = c.do(http.MethodPost, "/api/v1/admin/collections/gallery/documents", galleryPayload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_BearerToken(t *testing.T) {
	h := setupServer(t)

	token := (&client{t: t, h: h}).login()
	require.NotEmpty(t, token)

	c := &client{t: t, h: h, token: token}
	rec := c.do(http.MethodGet, "/api/v1/admin/collections/blog/documents", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	bad := &client{t: t, h: h, token: "forged"}
	rec = bad.do(http.MethodGet, "/api/v1/admin/collections/blog/documents", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_HiddenDocuments(t *testing.T) {
	h := setupServer(t)
	admin := &client{t: t, h: h}
	admin.login()

	hidden := strings.Replace(galleryPayload, `"visible": true`, `"visible": false`, 1)
	rec := admin.do(http.MethodPost, "/api/v1/admin/collections/gallery/documents", hidden)
	require.Equal(t, http.StatusCreated, rec.Code)

	public := &client{t: t, h: h}
	rec = public.do(http.MethodGet, "/api/v1/collections/gallery/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":0`)

	rec = public.do(http.MethodGet, "/api/v1/collections/gallery/documents/harbour-lights", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = admin.do(http.MethodGet, "/api/v1/admin/collections/gallery/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestServer_LoginRateLimit(t *testing.T) {
	h := setupServer(t)
	c := &client{t: t, h: h}

	for i := 0; i < 3; i++ {
		rec := c.do(http.MethodPost, "/api/v1/login", `{"username":"admin","password":"wrong-password"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := c.do(http.MethodPost, "/api/v1/login", `{"username":"admin","password":"`+adminPassword+`"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestServer_PublicEndpoints(t *testing.T) {
	h := setupServer(t)
	c := &client{t: t, h: h}

	tests := []struct {
		name   string
		target string
		status int
		want   string
	}{
		{name: "health", target: "/health", status: http.StatusOK, want: `"status":"ok"`},
		{name: "collections", target: "/api/v1/collections", status: http.StatusOK, want: `"collections":["blog","gallery"]`},
		{name: "translate", target: "/api/v1/routes/translate?path=/about&lang=es", status: http.StatusOK, want: `"result":"/sobre-nosotros"`},
		{name: "external url", target: "/api/v1/routes/translate?path=https://x.com&lang=es", status: http.StatusOK, want: `"result":"https://x.com"`},
		{name: "canonical", target: "/api/v1/routes/canonical?path=/sobre-nosotros&lang=es", status: http.StatusOK, want: `"result":"/about"`},
		{name: "languages", target: "/api/v1/routes/languages", status: http.StatusOK, want: `"languages":["es"]`},
		{name: "unknown collection", target: "/api/v1/collections/recipes/documents", status: http.StatusNotFound, want: "collection_not_found"},
		{name: "empty search", target: "/api/v1/collections/blog/search?q=", status: http.StatusOK, want: `"documents":[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}

	t.Run("metrics", func(t *testing.T) {
		rec := c.do(http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "sitecontent_http_requests_total")
	})
}

func TestServer_RequestID(t *testing.T) {
	h := setupServer(t)

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
		assert.NoError(t, err)
	})

	t.Run("client id kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "7f1c1a8e-9a52-4f57-8f3c-6b7a3f0e2d11")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "7f1c1a8e-9a52-4f57-8f3c-6b7a3f0e2d11", rec.Header().Get("X-Request-ID"))
	})
}
