package models

import (
	"regexp"
	"sort"
	"time"
)

type FieldKind int

const (
	KindString FieldKind = iota
	KindBool
	KindDate
)

func (k FieldKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// Collection описывает схему и соглашение об именах файлов для семейства документов
type Collection struct {
	Name string
	Dir  string

	// Fields задаёт порядок полей в заголовке файла
	Fields     []FieldSpec
	Searchable []string
	HasBody    bool

	// DatePrefixed: ключ хранения {YYYY-MM-DD}-{slug} для хронологического порядка файлов
	DatePrefixed    bool
	DateField       string
	VisibilityField string
	CategoryField   string
}

var (
	Blog = Collection{
		Name: "blog",
		Dir:  "blog",
		Fields: []FieldSpec{
			{Name: "title", Kind: KindString, Required: true},
			{Name: "date", Kind: KindDate, Required: true},
			{Name: "category", Kind: KindString, Required: true},
			{Name: "excerpt", Kind: KindString, Required: true},
			{Name: "author", Kind: KindString, Required: true},
			{Name: "published", Kind: KindBool, Required: true},
			{Name: "featured_image", Kind: KindString, Required: true},
			{Name: "featured_image_alt", Kind: KindString, Required: true},
			{Name: "seo_title", Kind: KindString},
			{Name: "seo_description", Kind: KindString},
		},
		Searchable:      []string{"title", "excerpt", "category", "slug"},
		HasBody:         true,
		DatePrefixed:    true,
		DateField:       "date",
		VisibilityField: "published",
		CategoryField:   "category",
	}

	Gallery = Collection{
		Name: "gallery",
		Dir:  "gallery",
		Fields: []FieldSpec{
			{Name: "title", Kind: KindString, Required: true},
			{Name: "image", Kind: KindString, Required: true},
			{Name: "alt", Kind: KindString, Required: true},
			{Name: "category", Kind: KindString, Required: true},
			{Name: "date", Kind: KindDate, Required: true},
			{Name: "visible", Kind: KindBool, Required: true},
			{Name: "featured", Kind: KindBool, Required: true},
			{Name: "description", Kind: KindString},
			{Name: "location", Kind: KindString},
		},
		Searchable:      []string{"title", "description", "category", "location", "slug"},
		DateField:       "date",
		VisibilityField: "visible",
		CategoryField:   "category",
	}
)

var collections = map[string]Collection{
	Blog.Name:    Blog,
	Gallery.Name: Gallery,
}

// LookupCollection returns the registered schema for name.
func LookupCollection(name string) (Collection, bool) {
	c, ok := collections[name]
	return c, ok
}

// CollectionNames returns the registered collection names in sorted order.
func CollectionNames() []string {
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Collection) Field(name string) (FieldSpec, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9-]+$`)
	datePrefixedKey = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-([a-z0-9-]+)$`)
)

func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// IsStorageKey reports whether key could name a unit in any collection.
// Keys never contain path separators or dots.
func IsStorageKey(key string) bool {
	return slugPattern.MatchString(key)
}

// StorageKey derives the on-disk key for a document with the given slug.
func (c Collection) StorageKey(slug string, fields map[string]any) (string, error) {
	if !c.DatePrefixed {
		return slug, nil
	}
	raw, _ := fields[c.DateField].(string)
	date, err := NormalizeDate(raw)
	if err != nil {
		return "", err
	}
	return date + "-" + slug, nil
}

// SlugFromKey recovers the slug part of a storage key.
func (c Collection) SlugFromKey(key string) string {
	if !c.DatePrefixed {
		return key
	}
	if m := datePrefixedKey.FindStringSubmatch(key); m != nil {
		return m[2]
	}
	return key
}

// KeyDate returns the date prefix of a date-prefixed key.
func (c Collection) KeyDate(key string) (string, bool) {
	if !c.DatePrefixed {
		return "", false
	}
	m := datePrefixedKey.FindStringSubmatch(key)
	if m == nil {
		return "", false
	}
	return m[1], true
}

const dateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// NormalizeDate truncates an ISO-8601 date or timestamp to its calendar date as
// written, without converting between time zones.
func NormalizeDate(s string) (string, error) {
	if len(s) < len(dateLayout) {
		return "", &FieldError{Field: "date", Reason: "not an ISO-8601 date"}
	}
	if len(s) == len(dateLayout) {
		if _, err := time.Parse(dateLayout, s); err != nil {
			return "", &FieldError{Field: "date", Reason: "not an ISO-8601 date"}
		}
		return s, nil
	}
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return s[:len(dateLayout)], nil
		}
	}
	return "", &FieldError{Field: "date", Reason: "not an ISO-8601 date"}
}
