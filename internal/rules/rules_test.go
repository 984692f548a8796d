package rules_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"filesorter/internal/logging"
	"filesorter/internal/rules"
)

type hookFunc func(ctx context.Context, path string) (string, error)

func (f hookFunc) Destination(ctx context.Context, path string) (string, error) { return f(ctx, path) }

func mustSet(t *testing.T, list ...rules.Rule) *rules.RuleSet {
	t.Helper()
	set, err := rules.NewRuleSet(list...)
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}
	return set
}

func TestExtensionOf(t *testing.T) {
	cases := map[string]string{
		"notes.txt":      ".txt",
		"archive.tar.gz": ".gz",
		".bashrc":        "",
		"README":         "",
		".config.json":   ".json",
		"photo.JPG":      ".JPG",
	}
	for name, want := range cases {
		if got := rules.ExtensionOf(name); got != want {
			t.Errorf("ExtensionOf(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	set := mustSet(t,
		rules.Extension(".txt", "TextFiles"),
		rules.Extension(".TXT", "Other"),
	)
	resolver := rules.NewResolver(logging.NewNop())

	dest, ok := resolver.Resolve(context.Background(), rules.NewCandidate("/tmp/a.txt"), set)
	if !ok || dest != "TextFiles" {
		t.Fatalf("expected TextFiles, got %q ok=%v", dest, ok)
	}
}

func TestResolveCaseInsensitiveExact(t *testing.T) {
	set := mustSet(t, rules.Extension(".jpg", "Images"))
	resolver := rules.NewResolver(nil)
	ctx := context.Background()

	if dest, ok := resolver.Resolve(ctx, rules.NewCandidate("/x/IMG.JPG"), set); !ok || dest != "Images" {
		t.Fatalf("expected case-insensitive match, got %q ok=%v", dest, ok)
	}
	for _, name := range []string{"/x/a.jpeg", "/x/a.jp", "/x/jpg", "/x/a.jpg.bak"} {
		if _, ok := resolver.Resolve(ctx, rules.NewCandidate(name), set); ok {
			t.Fatalf("unexpected match for %s", name)
		}
	}
}

func TestResolveEmptySet(t *testing.T) {
	set := mustSet(t)
	if _, ok := rules.NewResolver(nil).Resolve(context.Background(), rules.NewCandidate("/x/a.txt"), set); ok {
		t.Fatal("empty rule set must match nothing")
	}
}

func TestResolveScriptPrecedence(t *testing.T) {
	hook := hookFunc(func(_ context.Context, path string) (string, error) {
		if filepath.Ext(path) == ".txt" {
			return "Scripted", nil
		}
		return "", nil
	})
	ext := []rules.Rule{rules.Extension(".txt", "TextFiles")}
	script := rules.Script("hook", hook)
	ctx := context.Background()
	resolver := rules.NewResolver(nil)
	file := rules.NewCandidate("/x/a.txt")

	after, err := rules.Build(ext, &script, false)
	if err != nil {
		t.Fatal(err)
	}
	if dest, _ := resolver.Resolve(ctx, file, after); dest != "TextFiles" {
		t.Fatalf("extension rule should win when script runs after, got %q", dest)
	}

	before, err := rules.Build(ext, &script, true)
	if err != nil {
		t.Fatal(err)
	}
	if dest, _ := resolver.Resolve(ctx, file, before); dest != "Scripted" {
		t.Fatalf("script rule should win when it runs first, got %q", dest)
	}
}

func TestResolveScriptErrorIsNoMatch(t *testing.T) {
	failing := hookFunc(func(context.Context, string) (string, error) { return "", errors.New("boom") })
	invalid := hookFunc(func(context.Context, string) (string, error) { return "../escape", nil })
	ctx := context.Background()
	resolver := rules.NewResolver(logging.NewNop())

	for name, hook := range map[string]rules.ScriptHook{"error": failing, "invalid": invalid} {
		set := mustSet(t, rules.Script(name, hook), rules.Extension(".txt", "TextFiles"))
		dest, ok := resolver.Resolve(ctx, rules.NewCandidate("/x/a.txt"), set)
		if !ok || dest != "TextFiles" {
			t.Fatalf("%s: expected fallthrough to extension rule, got %q ok=%v", name, dest, ok)
		}
	}
}

func TestNewRuleSetRejectsInvalidDestinations(t *testing.T) {
	bad := []rules.Rule{
		rules.Extension(".txt", ""),
		rules.Extension(".txt", "a/b"),
		rules.Extension(".txt", ".."),
		rules.Extension("txt", "Text"),
		rules.Extension(".tar.gz", "Archives"),
		rules.Extension("..gz", "Archives"),
		rules.Script("s", nil),
		rules.Script("s", hookFunc(nil), "x/y"),
		{},
	}
	for i, rule := range bad {
		if _, err := rules.NewRuleSet(rule); !errors.Is(err, rules.ErrInvalidRule) {
			t.Errorf("case %d: expected ErrInvalidRule, got %v", i, err)
		}
	}
}

func TestDestinations(t *testing.T) {
	set := mustSet(t,
		rules.Extension(".jpg", "Images"),
		rules.Extension(".png", "Images"),
		rules.Script("s", hookFunc(nil), "Docs"),
		rules.Extension(".txt", "TextFiles"),
	)
	got := set.Destinations()
	want := []string{"Images", "Docs", "TextFiles"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestParseJSONKeepsOrder(t *testing.T) {
	data := []byte(`{"version": 1, "rules": {".txt": "TextFiles", ".jpg": "Images", ".png": "Images", ".rs": "RustCode"}}`)
	list, err := rules.ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	want := []string{".txt", ".jpg", ".png", ".rs"}
	if len(list) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(list))
	}
	for i, rule := range list {
		if rule.Matcher.(rules.ExtensionEquals).Extension != want[i] {
			t.Fatalf("rule %d out of order: %+v", i, rule)
		}
	}
}

func TestParseJSONRejectsMalformed(t *testing.T) {
	inputs := []string{
		`[]`,
		`{"other": {}}`,
		`{"rules": {".txt": 5}}`,
		`{"rules": {".txt": "A/B"}}`,
		`{"rules": {".txt": "A", ".TXT": "B"}}`,
		`{"rules": {}} {}`,
	}
	for _, input := range inputs {
		if _, err := rules.ParseJSON([]byte(input)); !errors.Is(err, rules.ErrInvalidRule) {
			t.Errorf("%s: expected ErrInvalidRule, got %v", input, err)
		}
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte("rules:\n  .pdf: Documents\n  .txt: TextFiles\n")
	list, err := rules.ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if len(list) != 2 || list[0].Destination != "Documents" || list[1].Destination != "TextFiles" {
		t.Fatalf("unexpected rules: %+v", list)
	}
	if _, err := rules.ParseYAML([]byte("rules: [a, b]\n")); !errors.Is(err, rules.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule for sequence, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := rules.LoadFile(filepath.Join(dir, "rules.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	path := filepath.Join(dir, "rules.yml")
	if err := os.WriteFile(path, []byte("rules:\n  .md: Notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	list, err := rules.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(list) != 1 || list[0].Destination != "Notes" {
		t.Fatalf("unexpected rules: %+v", list)
	}
}

func TestDefaultRulesAreValid(t *testing.T) {
	set := mustSet(t, rules.DefaultRules()...)
	if set.Len() != 4 {
		t.Fatalf("expected four default rules, got %d", set.Len())
	}
}

func TestMultiDotExtensionRejectedFromFile(t *testing.T) {
	parsed, err := rules.ParseJSON([]byte(`{"rules": {".gz": "Archives", ".tar.gz": "Tarballs"}}`))
	if err == nil {
		_, err = rules.NewRuleSet(parsed...)
	}
	if !errors.Is(err, rules.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule for .tar.gz, got %v", err)
	}
}
