package services

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *RouteService {
	t.Helper()

	s, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)), map[string]map[string]string{
		"es": {
			"/about":   "/sobre-nosotros",
			"/contact": "/contacto",
			"/blog":    "/blog",
		},
		"FR": {
			"/about": "/a-propos",
		},
	})
	require.NoError(t, err)
	return s
}

func TestRouteService_Translate(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name string
		path string
		lang string
		want string
	}{
		{name: "configured alias", path: "/about", lang: "es", want: "/sobre-nosotros"},
		{name: "untranslated route", path: "/pricing", lang: "es", want: "/pricing"},
		{name: "unknown language", path: "/about", lang: "de", want: "/about"},
		{name: "empty language", path: "/about", lang: "", want: "/about"},
		{name: "external url", path: "https://x.com", lang: "es", want: "https://x.com"},
		{name: "protocol relative", path: "//cdn.example.com/about", lang: "es", want: "//cdn.example.com/about"},
		{name: "mailto", path: "mailto:hi@example.com", lang: "es", want: "mailto:hi@example.com"},
		{name: "anchor only", path: "#top", lang: "es", want: "#top"},
		{name: "query preserved", path: "/contact?ref=footer", lang: "es", want: "/contacto?ref=footer"},
		{name: "fragment preserved", path: "/about#team", lang: "es", want: "/sobre-nosotros#team"},
		{name: "regional fallback", path: "/about", lang: "es-MX", want: "/sobre-nosotros"},
		{name: "language case", path: "/about", lang: "fr", want: "/a-propos"},
		{name: "trailing slash is a different route", path: "/about/", lang: "es", want: "/about/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Translate(tt.path, tt.lang))
		})
	}
}

func TestRouteService_LookupAndCanonical(t *testing.T) {
	s := newTestService(t)

	got, ok := s.Lookup("/about", "es")
	assert.True(t, ok)
	assert.Equal(t, "/sobre-nosotros", got)

	got, ok = s.Lookup("/pricing", "es")
	assert.False(t, ok)
	assert.Equal(t, "/pricing", got)

	got, ok = s.Canonical("/sobre-nosotros?x=1", "es")
	assert.True(t, ok)
	assert.Equal(t, "/about?x=1", got)

	_, ok = s.Canonical("/sobre-nosotros", "fr")
	assert.False(t, ok)

	assert.Equal(t, []string{"es", "fr"}, s.Languages())
}

func TestRouteService_SharedAlias(t *testing.T) {
	s, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)), map[string]map[string]string{
		"es": {"/team": "/equipo", "/about": "/equipo"},
	})
	require.NoError(t, err)

	got, ok := s.Canonical("/equipo", "es")
	assert.True(t, ok)
	assert.Equal(t, "/about", got)
	assert.Equal(t, "/equipo", s.Translate("/team", "es"))
}

func TestNew_Invalid(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name  string
		table map[string]map[string]string
	}{
		{name: "relative canonical", table: map[string]map[string]string{"es": {"about": "/sobre"}}},
		{name: "external localized", table: map[string]map[string]string{"es": {"/about": "https://x.com"}}},
		{name: "empty language", table: map[string]map[string]string{" ": {"/a": "/b"}}},
		{name: "duplicate language", table: map[string]map[string]string{"es": {"/a": "/b"}, "ES": {"/a": "/c"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(log, tt.table)
			assert.ErrorIs(t, err, ErrInvalidRoute)
		})
	}
}

func TestLoad(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "locales.yaml")
		require.NoError(t, os.WriteFile(path, []byte("es:\n  /about: /sobre-nosotros\n"), 0644))

		s, err := Load(log, path)
		require.NoError(t, err)
		assert.Equal(t, "/sobre-nosotros", s.Translate("/about", "es"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(log, filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("es: [/about\n"), 0644))

		_, err := Load(log, path)
		assert.Error(t, err)
	})
}
