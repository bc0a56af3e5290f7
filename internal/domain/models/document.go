package models

import (
	"fmt"
	"strings"
)

// Document is one content record: frontmatter metadata plus an optional body.
type Document struct {
	Collection string         `json:"collection"`
	Key        string         `json:"key"`
	Slug       string         `json:"slug"`
	Metadata   map[string]any `json:"metadata"`
	Body       string         `json:"body,omitempty"`
}

func (d Document) String(field string) string {
	s, _ := d.Metadata[field].(string)
	return s
}

func (d Document) Bool(field string) bool {
	b, _ := d.Metadata[field].(bool)
	return b
}

// DocumentInput is the payload for create and update. Body is nil when the
// caller did not send one.
type DocumentInput struct {
	Slug   string
	Fields map[string]any
	Body   *string
}

type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationError lists everything wrong with a payload so the caller can fix
// it in one round trip.
type ValidationError struct {
	Collection string
	Missing    []string
	Invalid    []FieldError
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		invalid := make([]string, 0, len(e.Invalid))
		for _, fe := range e.Invalid {
			invalid = append(invalid, fe.Error())
		}
		parts = append(parts, "invalid fields: "+strings.Join(invalid, "; "))
	}
	return fmt.Sprintf("%s: validation failed: %s", e.Collection, strings.Join(parts, "; "))
}

func (e *ValidationError) Empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}
