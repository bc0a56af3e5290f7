package services

import (
	"fmt"
	"sort"
	"strings"

	"sitecontent/internal/domain/models"
)

// validateFields проверяет поля по схеме коллекции и возвращает копию,
// содержащую только заданные значения. Ошибки собираются все сразу.
func validateFields(c models.Collection, fields map[string]any, verr *models.ValidationError) map[string]any {
	out := make(map[string]any, len(fields))

	unknown := make([]string, 0)
	for name := range fields {
		if _, ok := c.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		verr.Invalid = append(verr.Invalid, models.FieldError{Field: name, Reason: "unknown field"})
	}

	for _, spec := range c.Fields {
		v, ok := fields[spec.Name]
		if !ok || v == nil {
			if spec.Required {
				verr.Missing = append(verr.Missing, spec.Name)
			}
			continue
		}

		switch spec.Kind {
		case models.KindBool:
			if _, ok := v.(bool); !ok {
				verr.Invalid = append(verr.Invalid, models.FieldError{Field: spec.Name, Reason: "must be a boolean"})
				continue
			}
		case models.KindDate:
			s, ok := v.(string)
			if !ok {
				verr.Invalid = append(verr.Invalid, models.FieldError{Field: spec.Name, Reason: "must be a string"})
				continue
			}
			if _, err := models.NormalizeDate(s); err != nil {
				verr.Invalid = append(verr.Invalid, models.FieldError{Field: spec.Name, Reason: "not an ISO-8601 date"})
				continue
			}
		default:
			s, ok := v.(string)
			if !ok {
				verr.Invalid = append(verr.Invalid, models.FieldError{Field: spec.Name, Reason: "must be a string"})
				continue
			}
			if spec.Required && strings.TrimSpace(s) == "" {
				verr.Missing = append(verr.Missing, spec.Name)
				continue
			}
		}

		out[spec.Name] = v
	}

	return out
}

func validateBody(c models.Collection, body *string, verr *models.ValidationError) {
	if !c.HasBody && body != nil && *body != "" {
		verr.Invalid = append(verr.Invalid, models.FieldError{
			Field:  "body",
			Reason: fmt.Sprintf("collection %q has no body", c.Name),
		})
	}
}

// resolveSlug берёт slug из запроса, а если он пуст, строит его из заголовка.
func resolveSlug(slug string, fields map[string]any, verr *models.ValidationError) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		title, _ := fields["title"].(string)
		slug = generateSlug(title)
		if slug == "" {
			// без заголовка slug не построить; отсутствие title уже учтено
			if strings.TrimSpace(title) != "" {
				verr.Invalid = append(verr.Invalid, models.FieldError{Field: "slug", Reason: "cannot be derived from title"})
			}
			return ""
		}
	}
	if !models.IsSlug(slug) {
		verr.Invalid = append(verr.Invalid, models.FieldError{Field: "slug", Reason: "must match [a-z0-9-]+"})
		return ""
	}
	return slug
}

// validateKeyDate: календарная дата документа должна совпадать с префиксом его ключа.
func validateKeyDate(c models.Collection, key string, fields map[string]any, verr *models.ValidationError) {
	keyDate, ok := c.KeyDate(key)
	if !ok {
		return
	}
	raw, _ := fields[c.DateField].(string)
	date, err := models.NormalizeDate(raw)
	if err != nil || date == keyDate {
		return
	}
	verr.Invalid = append(verr.Invalid, models.FieldError{
		Field:  c.DateField,
		Reason: fmt.Sprintf("must stay on %s, the date in key %s", keyDate, key),
	})
}
