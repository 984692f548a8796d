package rules

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidDestination = errors.New("invalid destination")
	ErrInvalidRule        = errors.New("invalid rule")
)

// CandidateFile is a snapshot of a file observed during a scan.
type CandidateFile struct {
	Path      string
	Name      string
	Extension string
}

// NewCandidate builds a CandidateFile from a path.
func NewCandidate(path string) CandidateFile {
	name := filepath.Base(path)
	return CandidateFile{Path: path, Name: name, Extension: ExtensionOf(name)}
}

// ExtensionOf returns the trailing extension of name including the dot.
// Dot-files without a further dot, like ".bashrc", have no extension.
func ExtensionOf(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return ext
}

// ScriptHook supplies a destination for a file path. An empty result means
// the hook does not claim the file.
type ScriptHook interface {
	Destination(ctx context.Context, path string) (string, error)
}

// Matcher is implemented by ExtensionEquals and ScriptPredicate only.
type Matcher interface {
	isMatcher()
}

// ExtensionEquals matches files whose extension equals Extension, ignoring case.
type ExtensionEquals struct {
	Extension string
}

func (ExtensionEquals) isMatcher() {}

// ScriptPredicate delegates both matching and destination choice to a hook.
// Destinations lists folders the hook is known to return so scans can skip
// them; it does not restrict what the hook may answer.
type ScriptPredicate struct {
	Hook         ScriptHook
	Name         string
	Destinations []string
}

func (ScriptPredicate) isMatcher() {}

// Rule pairs a matcher with its destination folder. Destination is empty for
// script rules.
type Rule struct {
	Matcher     Matcher
	Destination string
}

// Extension returns an extension rule.
func Extension(ext, destination string) Rule {
	return Rule{Matcher: ExtensionEquals{Extension: ext}, Destination: destination}
}

// Script returns a script rule backed by hook.
func Script(name string, hook ScriptHook, destinations ...string) Rule {
	return Rule{Matcher: ScriptPredicate{Hook: hook, Name: name, Destinations: destinations}}
}

// ValidDestination reports whether name can be used as a destination folder:
// a single non-empty path segment other than "." and "..".
func ValidDestination(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty name", ErrInvalidDestination)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidDestination, name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, filepath.Separator):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidDestination, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidDestination, name)
	}
	return nil
}

func (r Rule) validate() error {
	switch m := r.Matcher.(type) {
	case ExtensionEquals:
		ext := m.Extension
		if len(ext) < 2 || ext[0] != '.' || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalidRule, ext)
		}
		if strings.Count(ext, ".") > 1 {
			return fmt.Errorf("%w: extension %q has more than one dot; only the last one is matched", ErrInvalidRule, ext)
		}
		if err := ValidDestination(r.Destination); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidRule, ext, err)
		}
	case ScriptPredicate:
		if m.Hook == nil {
			return fmt.Errorf("%w: script rule %q has no hook", ErrInvalidRule, m.Name)
		}
		for _, dest := range m.Destinations {
			if err := ValidDestination(dest); err != nil {
				return fmt.Errorf("%w: script rule %q: %w", ErrInvalidRule, m.Name, err)
			}
		}
	default:
		return fmt.Errorf("%w: missing matcher", ErrInvalidRule)
	}
	return nil
}
