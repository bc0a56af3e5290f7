// Package frontmatter encodes documents as a YAML header between "---" lines
// followed by a free-text body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

var (
	ErrMissingHeader      = errors.New("frontmatter: missing opening delimiter")
	ErrUnterminatedHeader = errors.New("frontmatter: missing closing delimiter")
)

// Field is one header entry. Value is a string or a bool.
type Field struct {
	Key   string
	Value any
}

// Marshal writes fields in the given order. Strings are always double quoted so
// that values such as "yes" or "2024-01-01" read back as the same strings.
func Marshal(fields []Field, body string) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range fields {
		value, err := scalarNode(f.Value)
		if err != nil {
			return nil, fmt.Errorf("frontmatter: field %q: %w", f.Key, err)
		}
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
			value,
		)
	}

	var header bytes.Buffer
	enc := yaml.NewEncoder(&header)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return nil, fmt.Errorf("frontmatter: encode header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("frontmatter: encode header: %w", err)
	}

	var out bytes.Buffer
	out.Grow(header.Len() + len(body) + 2*len(delimiter) + 2)
	out.WriteString(delimiter + "\n")
	out.Write(header.Bytes())
	out.WriteString(delimiter + "\n")
	out.WriteString(body)
	return out.Bytes(), nil
}

func scalarNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: val}, nil
	case bool:
		s := "false"
		if val {
			s = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// Unmarshal splits data into header fields (in file order) and body. Booleans
// decode as bool; every other scalar decodes as its literal text.
func Unmarshal(data []byte) ([]Field, string, error) {
	header, body, err := split(strings.TrimPrefix(string(data), "\ufeff"))
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(header) == "" {
		return nil, body, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil, "", fmt.Errorf("frontmatter: decode header: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, "", errors.New("frontmatter: header is not a mapping")
	}

	mapping := doc.Content[0]
	fields := make([]Field, 0, len(mapping.Content)/2)
	seen := make(map[string]struct{}, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k, v := mapping.Content[i], mapping.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, "", fmt.Errorf("frontmatter: non-scalar key at line %d", k.Line)
		}
		if _, dup := seen[k.Value]; dup {
			return nil, "", fmt.Errorf("frontmatter: duplicate key %q", k.Value)
		}
		seen[k.Value] = struct{}{}

		if v.Kind != yaml.ScalarNode {
			return nil, "", fmt.Errorf("frontmatter: field %q is not a scalar", k.Value)
		}
		var value any = v.Value
		if v.ShortTag() == "!!bool" {
			var b bool
			if err := v.Decode(&b); err != nil {
				return nil, "", fmt.Errorf("frontmatter: field %q: %w", k.Value, err)
			}
			value = b
		} else if v.ShortTag() == "!!null" {
			value = nil
		}
		fields = append(fields, Field{Key: k.Value, Value: value})
	}
	return fields, body, nil
}

func split(s string) (header, body string, err error) {
	open := delimiter + "\n"
	if !strings.HasPrefix(s, open) {
		return "", "", ErrMissingHeader
	}
	rest := s[len(open):]

	switch {
	case strings.HasPrefix(rest, open):
		return "", rest[len(open):], nil
	case rest == delimiter:
		return "", "", nil
	}

	closing := "\n" + delimiter + "\n"
	if i := strings.Index(rest, closing); i >= 0 {
		return rest[:i+1], rest[i+len(closing):], nil
	}
	if strings.HasSuffix(rest, "\n"+delimiter) {
		return rest[:len(rest)-len(delimiter)], "", nil
	}
	return "", "", ErrUnterminatedHeader
}
