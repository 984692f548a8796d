package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// rulesKey is the top-level document key holding the extension mapping.
const rulesKey = "rules"

// DefaultRules returns the built-in extension rules used when no rule file
// exists.
func DefaultRules() []Rule {
	return []Rule{
		Extension(".txt", "TextFiles"),
		Extension(".jpg", "Images"),
		Extension(".png", "Images"),
		Extension(".rs", "RustCode"),
	}
}

// LoadFile reads extension rules from a JSON or YAML file. A missing file
// returns an error matching os.ErrNotExist.
func LoadFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes {"rules": {...}} keeping entries in document order.
// Other top-level keys are ignored.
func ParseJSON(data []byte) ([]Rule, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var out []Rule
	found := false
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		if key != rulesKey {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRule, key, err)
			}
			continue
		}
		found = true
		if out, err = jsonMapping(dec); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after rule document", ErrInvalidRule)
	}
	if !found {
		return nil, fmt.Errorf("%w: missing %q object", ErrInvalidRule, rulesKey)
	}
	return out, validateEntries(out)
}

func jsonMapping(dec *json.Decoder) ([]Rule, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var out []Rule
	for dec.More() {
		ext, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		dest, err := stringToken(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: value for %q must be a string", ErrInvalidRule, ext)
		}
		out = append(out, Extension(ext, dest))
	}
	return out, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrInvalidRule, want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %v", ErrInvalidRule, tok)
	}
	return s, nil
}

// ParseYAML decodes the YAML form of a rule document in document order.
func ParseYAML(data []byte) ([]Rule, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: rule document must be a mapping", ErrInvalidRule)
	}
	top := doc.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value != rulesKey {
			continue
		}
		mapping := top.Content[i+1]
		if mapping.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %q must be a mapping (line %d)", ErrInvalidRule, rulesKey, mapping.Line)
		}
		out := make([]Rule, 0, len(mapping.Content)/2)
		for j := 0; j+1 < len(mapping.Content); j += 2 {
			key, value := mapping.Content[j], mapping.Content[j+1]
			if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: line %d: entries must map an extension to a folder", ErrInvalidRule, key.Line)
			}
			out = append(out, Extension(key.Value, value.Value))
		}
		return out, validateEntries(out)
	}
	return nil, fmt.Errorf("%w: missing %q mapping", ErrInvalidRule, rulesKey)
}

// validateEntries rejects malformed entries and extensions listed twice
// under case folding.
func validateEntries(list []Rule) error {
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(list))
	for _, rule := range list {
		if err := rule.validate(); err != nil {
			return err
		}
		key := folder.String(rule.Matcher.(ExtensionEquals).Extension)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: extension %q listed more than once", ErrInvalidRule, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}
