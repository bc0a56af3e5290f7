package services

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidRoute = errors.New("invalid route")

// RouteService переводит внутренние пути сайта в локализованные.
// Таблица заполняется один раз при старте и дальше только читается.
type RouteService struct {
	log       *slog.Logger
	forward   map[string]map[string]string
	reverse   map[string]map[string]string
	languages []string
}

// New строит сервис из таблицы lang -> canonical -> localized.
func New(log *slog.Logger, table map[string]map[string]string) (*RouteService, error) {
	const op = "route_service.New"

	s := &RouteService{
		log:     log,
		forward: make(map[string]map[string]string, len(table)),
		reverse: make(map[string]map[string]string, len(table)),
	}

	for lang, routes := range table {
		lang = normalizeLang(lang)
		if lang == "" {
			return nil, fmt.Errorf("%s: %w: empty language code", op, ErrInvalidRoute)
		}
		if _, dup := s.forward[lang]; dup {
			return nil, fmt.Errorf("%s: %w: language %q listed twice", op, ErrInvalidRoute, lang)
		}

		fwd := make(map[string]string, len(routes))
		for canonical, localized := range routes {
			if !isInternal(canonical) || !isInternal(localized) {
				return nil, fmt.Errorf("%s: %w: %s: %q -> %q", op, ErrInvalidRoute, lang, canonical, localized)
			}
			fwd[canonical] = localized
		}

		// обратная карта строится в отсортированном порядке, чтобы при
		// совпадающих переводах всегда выигрывал один и тот же canonical
		canonicals := make([]string, 0, len(fwd))
		for canonical := range fwd {
			canonicals = append(canonicals, canonical)
		}
		sort.Strings(canonicals)

		rev := make(map[string]string, len(fwd))
		for _, canonical := range canonicals {
			localized := fwd[canonical]
			if prev, dup := rev[localized]; dup {
				log.Warn("localized path shared by several routes",
					slog.String("lang", lang),
					slog.String("localized", localized),
					slog.String("kept", prev),
					slog.String("ignored", canonical),
				)
				continue
			}
			rev[localized] = canonical
		}

		s.forward[lang] = fwd
		s.reverse[lang] = rev
		s.languages = append(s.languages, lang)
	}
	sort.Strings(s.languages)

	return s, nil
}

// Load читает таблицу маршрутов из YAML-файла вида
//
//	es:
//	  /about: /sobre-nosotros
func Load(log *slog.Logger, path string) (*RouteService, error) {
	const op = "route_service.Load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var table map[string]map[string]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s, err := New(log, table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("locale routes loaded",
		slog.String("path", path),
		slog.Any("languages", s.languages),
	)
	return s, nil
}

// Translate возвращает локализованный путь или исходный, если перевода нет.
// Внешние ссылки не меняются. Query и fragment сохраняются.
func (s *RouteService) Translate(path, lang string) string {
	localized, _ := s.Lookup(path, lang)
	return localized
}

// Lookup как Translate, но сообщает, был ли путь переведён.
func (s *RouteService) Lookup(path, lang string) (string, bool) {
	return s.resolve(s.forward, path, lang)
}

// Canonical переводит локализованный путь обратно.
func (s *RouteService) Canonical(path, lang string) (string, bool) {
	return s.resolve(s.reverse, path, lang)
}

// Languages возвращает коды языков в отсортированном порядке.
func (s *RouteService) Languages() []string {
	out := make([]string, len(s.languages))
	copy(out, s.languages)
	return out
}

func (s *RouteService) resolve(table map[string]map[string]string, path, lang string) (string, bool) {
	if !isInternal(path) {
		return path, false
	}

	routes := s.routes(table, lang)
	if routes == nil {
		return path, false
	}

	p, suffix := splitSuffix(path)
	if mapped, ok := routes[p]; ok {
		return mapped + suffix, true
	}
	return path, false
}

// routes ищет таблицу языка; для "es-MX" без своей таблицы берётся "es".
func (s *RouteService) routes(table map[string]map[string]string, lang string) map[string]string {
	lang = normalizeLang(lang)
	if routes, ok := table[lang]; ok {
		return routes
	}
	if base, _, found := strings.Cut(lang, "-"); found {
		return table[base]
	}
	return nil
}

func isInternal(path string) bool {
	return strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//")
}

func splitSuffix(path string) (string, string) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i], path[i:]
	}
	return path, ""
}

func normalizeLang(lang string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(lang)), "_", "-")
}
