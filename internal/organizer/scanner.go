package organizer

import (
	"iter"
	"os"
	"path/filepath"
	"strings"

	"filesorter/internal/rules"
)

// ScanOptions controls which entries a Scanner yields.
type ScanOptions struct {
	// Recursive descends into subdirectories that are not excluded.
	Recursive bool
	// Exclude lists entries that are never yielded or descended into. Values
	// containing a path separator are compared as absolute paths, the rest
	// as base names.
	Exclude []string
}

// Scanner enumerates the regular files of a root directory.
type Scanner struct {
	recursive bool
	names     map[string]struct{}
	paths     map[string]struct{}
}

func NewScanner(opts ScanOptions) *Scanner {
	s := &Scanner{
		recursive: opts.Recursive,
		names:     make(map[string]struct{}),
		paths:     make(map[string]struct{}),
	}
	for _, entry := range opts.Exclude {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.ContainsRune(entry, '/') || strings.ContainsRune(entry, filepath.Separator) {
			if abs, err := filepath.Abs(entry); err == nil {
				s.paths[abs] = struct{}{}
			}
			continue
		}
		s.names[entry] = struct{}{}
	}
	return s
}

// Scan reads root immediately and returns a lazy, single-use sequence of
// candidates. Direct children of root named after a destination of set are
// skipped. A failure reading root is returned; failures reading nested
// directories are yielded with the directory path as the candidate.
func (s *Scanner) Scan(root string, set *rules.RuleSet) (iter.Seq2[rules.CandidateFile, error], error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	destinations := make(map[string]struct{})
	for _, dest := range set.Destinations() {
		destinations[dest] = struct{}{}
	}

	consumed := false
	return func(yield func(rules.CandidateFile, error) bool) {
		if consumed {
			return
		}
		consumed = true
		s.walk(root, entries, destinations, yield)
	}, nil
}

func (s *Scanner) walk(dir string, entries []os.DirEntry, skipDirs map[string]struct{}, yield func(rules.CandidateFile, error) bool) bool {
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if s.excluded(entry.Name(), path) {
			continue
		}
		switch {
		case entry.Type().IsRegular():
			if !yield(rules.NewCandidate(path), nil) {
				return false
			}
		case entry.IsDir() && s.recursive:
			if _, isDest := skipDirs[entry.Name()]; isDest {
				continue
			}
			children, err := os.ReadDir(path)
			if err != nil {
				if !yield(rules.NewCandidate(path), Wrap(ErrIO, "read directory", path, err)) {
					return false
				}
				continue
			}
			if !s.walk(path, children, nil, yield) {
				return false
			}
		}
	}
	return true
}

func (s *Scanner) excluded(name, path string) bool {
	if _, ok := s.names[name]; ok {
		return true
	}
	_, ok := s.paths[path]
	return ok
}
