package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"filesorter/internal/logging"
	"filesorter/internal/organizer"
	"filesorter/internal/rules"
	"filesorter/internal/testsupport"
)

type hookFunc func(ctx context.Context, path string) (string, error)

func (f hookFunc) Destination(ctx context.Context, path string) (string, error) { return f(ctx, path) }

func newRunner(opts organizer.Options) *organizer.Runner {
	return organizer.NewRunner(opts, logging.NewNop())
}

func ruleSet(t *testing.T, list ...rules.Rule) *rules.RuleSet {
	t.Helper()
	set, err := rules.NewRuleSet(list...)
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}
	return set
}

func outcomeFor(t *testing.T, report *organizer.RunReport, source string) organizer.Outcome {
	t.Helper()
	for _, o := range report.Outcomes {
		if o.Source == source {
			return o
		}
	}
	t.Fatalf("no outcome for %s in %+v", source, report.Outcomes)
	return organizer.Outcome{}
}

func TestRunSortsByExtension(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.jpg", "c.unknown"} {
		testsupport.WriteFile(t, filepath.Join(root, name), name)
	}
	set := ruleSet(t, rules.Extension(".txt", "TextFiles"), rules.Extension(".jpg", "Images"))

	report, err := newRunner(organizer.Options{}).Run(context.Background(), root, set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ID == "" || report.Root != root {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if report.Moved != 2 || report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("unexpected counts: moved=%d skipped=%d failed=%d", report.Moved, report.Skipped, report.Failed)
	}

	if o := outcomeFor(t, report, filepath.Join(root, "a.txt")); o.Destination != filepath.Join(root, "TextFiles", "a.txt") {
		t.Fatalf("a.txt: %+v", o)
	}
	if o := outcomeFor(t, report, filepath.Join(root, "b.jpg")); o.Destination != filepath.Join(root, "Images", "b.jpg") {
		t.Fatalf("b.jpg: %+v", o)
	}
	if o := outcomeFor(t, report, filepath.Join(root, "c.unknown")); o.Status != organizer.StatusSkipped || o.Reason != organizer.ReasonNoRuleMatched {
		t.Fatalf("c.unknown: %+v", o)
	}

	want := []string{"Images/b.jpg", "TextFiles/a.txt", "c.unknown"}
	if got := testsupport.Tree(t, root); !slices.Equal(got, want) {
		t.Fatalf("tree mismatch: got %v want %v", got, want)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.jpg", "c.unknown"} {
		testsupport.WriteFile(t, filepath.Join(root, name), name)
	}
	set := ruleSet(t, rules.Extension(".txt", "TextFiles"), rules.Extension(".jpg", "Images"))

	for _, recursive := range []bool{false, true} {
		runner := newRunner(organizer.Options{Recursive: recursive})
		if _, err := runner.Run(context.Background(), root, set); err != nil {
			t.Fatalf("first run: %v", err)
		}
		second, err := runner.Run(context.Background(), root, set)
		if err != nil {
			t.Fatalf("second run: %v", err)
		}
		if second.Moved != 0 || second.Failed != 0 || second.Skipped != second.Total() {
			t.Fatalf("recursive=%v: second run not idempotent: %+v", recursive, second.Outcomes)
		}
	}
}

func TestRunResolvesCollisions(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "TextFiles", "a.txt"), "existing")
	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "incoming")
	set := ruleSet(t, rules.Extension(".txt", "TextFiles"))

	report, err := newRunner(organizer.Options{}).Run(context.Background(), root, set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	o := outcomeFor(t, report, filepath.Join(root, "a.txt"))
	if o.Destination != filepath.Join(root, "TextFiles", "a (1).txt") {
		t.Fatalf("unexpected destination: %+v", o)
	}
	if testsupport.ReadFile(t, filepath.Join(root, "TextFiles", "a.txt")) != "existing" {
		t.Fatal("existing content overwritten")
	}
	if testsupport.ReadFile(t, o.Destination) != "incoming" {
		t.Fatal("incoming content lost")
	}
}

func TestRunCollisionSafetyForSameNames(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "nested", "a.txt"), "nested")
	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "top")
	set := ruleSet(t, rules.Extension(".txt", "TextFiles"))

	report, err := newRunner(organizer.Options{Recursive: true}).Run(context.Background(), root, set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Moved != 2 {
		t.Fatalf("expected two moves, got %+v", report.Outcomes)
	}
	first, second := report.Outcomes[0].Destination, report.Outcomes[1].Destination
	if first == second {
		t.Fatalf("destinations overlap: %s", first)
	}
	contents := []string{testsupport.ReadFile(t, first), testsupport.ReadFile(t, second)}
	slices.Sort(contents)
	if !slices.Equal(contents, []string{"nested", "top"}) {
		t.Fatalf("content lost: %v", contents)
	}
}

func TestRunScriptHook(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "app.log"), "log")
	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), "notes")
	hook := hookFunc(func(_ context.Context, path string) (string, error) {
		if filepath.Base(path) == "app.log" {
			return "Logs", nil
		}
		return "", nil
	})
	set := ruleSet(t, rules.Script("hook", hook))

	report, err := newRunner(organizer.Options{}).Run(context.Background(), root, set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if o := outcomeFor(t, report, filepath.Join(root, "app.log")); o.Destination != filepath.Join(root, "Logs", "app.log") {
		t.Fatalf("app.log: %+v", o)
	}
	if o := outcomeFor(t, report, filepath.Join(root, "notes.txt")); o.Reason != organizer.ReasonNoRuleMatched {
		t.Fatalf("notes.txt: %+v", o)
	}
}

func TestRunScriptFailureDoesNotAbort(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "a")
	testsupport.WriteFile(t, filepath.Join(root, "b.bin"), "b")
	hook := hookFunc(func(context.Context, string) (string, error) { return "", errors.New("interpreter crashed") })
	set := ruleSet(t, rules.Script("hook", hook), rules.Extension(".txt", "TextFiles"))

	report, err := newRunner(organizer.Options{}).Run(context.Background(), root, set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Moved != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected counts: %+v", report.Outcomes)
	}
}

func TestRunRecordsFileRemovedAfterListing(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		testsupport.WriteFile(t, filepath.Join(root, name), name)
	}
	vanishing := filepath.Join(root, "b.txt")
	hook := hookFunc(func(_ context.Context, path string) (string, error) {
		if filepath.Base(path) == "a.txt" {
			if err := os.Remove(vanishing); err != nil {
				return "", err
			}
		}
		return "Docs", nil
	})
	set := ruleSet(t, rules.Script("hook", hook, "Docs"))

	report, err := newRunner(organizer.Options{}).Run(context.Background(), root, set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Moved != 2 || report.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", report.Outcomes)
	}
	if o := outcomeFor(t, report, vanishing); o.Status != organizer.StatusFailed || o.Kind != organizer.KindNotFound {
		t.Fatalf("b.txt: %+v", o)
	}
	if o := outcomeFor(t, report, filepath.Join(root, "c.txt")); o.Destination != filepath.Join(root, "Docs", "c.txt") {
		t.Fatalf("c.txt must still be processed: %+v", o)
	}
	want := []string{"Docs/a.txt", "Docs/c.txt"}
	if got := testsupport.Tree(t, root); !slices.Equal(got, want) {
		t.Fatalf("tree mismatch: got %v want %v", got, want)
	}
}

func TestRunSkipsNonRegularAndExcluded(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "rules.json"), `{"rules": {}}`)
	testsupport.WriteFile(t, filepath.Join(root, "keep.txt"), "keep")
	testsupport.WriteFile(t, filepath.Join(root, "sub", "inner.txt"), "inner")
	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "a")
	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	set := ruleSet(t, rules.Extension(".txt", "TextFiles"), rules.Extension(".json", "Data"))

	runner := newRunner(organizer.Options{Exclude: []string{"keep.txt", filepath.Join(root, "rules.json")}})
	report, err := runner.Run(context.Background(), root, set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Total() != 1 || report.Outcomes[0].Source != filepath.Join(root, "a.txt") {
		t.Fatalf("expected only a.txt to be processed, got %+v", report.Outcomes)
	}
	if testsupport.ReadFile(t, filepath.Join(root, "sub", "inner.txt")) != "inner" {
		t.Fatal("non-recursive run must not descend")
	}
}

func TestRunRecursiveSkipsDestinationFolders(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "TextFiles", "old.txt"), "old")
	testsupport.WriteFile(t, filepath.Join(root, "Reports", "q1.txt"), "q1")
	hook := hookFunc(func(context.Context, string) (string, error) { return "", nil })
	testsupport.WriteFile(t, filepath.Join(root, "Scripted", "s.bin"), "s")
	set := ruleSet(t, rules.Extension(".txt", "TextFiles"), rules.Script("hook", hook, "Scripted"))

	report, err := newRunner(organizer.Options{Recursive: true}).Run(context.Background(), root, set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Total() != 1 {
		t.Fatalf("expected only Reports/q1.txt, got %+v", report.Outcomes)
	}
	o := report.Outcomes[0]
	if o.Source != filepath.Join(root, "Reports", "q1.txt") || o.Destination != filepath.Join(root, "TextFiles", "q1.txt") {
		t.Fatalf("unexpected outcome: %+v", o)
	}
}

func TestRunMissingRootIsFatal(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")
	_, err := newRunner(organizer.Options{}).Run(context.Background(), root, ruleSet(t))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if organizer.KindOf(err) != organizer.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestRunCancellationReturnsPartialReport(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		testsupport.WriteFile(t, filepath.Join(root, name), name)
	}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	hook := hookFunc(func(context.Context, string) (string, error) {
		calls++
		if calls == 1 {
			cancel()
		}
		return "Sorted", nil
	})
	set := ruleSet(t, rules.Script("hook", hook))

	report, err := newRunner(organizer.Options{}).Run(ctx, root, set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Cancelled {
		t.Fatal("expected cancelled report")
	}
	if report.Moved != 1 || report.Total() != 1 {
		t.Fatalf("expected the in-flight file to finish and the rest to stay, got %+v", report.Outcomes)
	}
	if report.FinishedAt.IsZero() {
		t.Fatal("expected finish time")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want organizer.Kind
	}{
		{nil, organizer.KindNone},
		{organizer.Wrap(organizer.ErrNotFound, "stat", "/x", os.ErrNotExist), organizer.KindNotFound},
		{organizer.Wrap(organizer.ErrDestinationConflict, "mkdir", "/x", nil), organizer.KindDestinationConflict},
		{organizer.Wrap(organizer.ErrCollisionExhausted, "probe", "/x", nil), organizer.KindCollisionExhausted},
		{organizer.Wrap(organizer.ErrPermissionDenied, "rename", "", os.ErrPermission), organizer.KindPermissionDenied},
		{organizer.Wrap(organizer.ErrScript, "", "", nil), organizer.KindScript},
		{errors.New("other"), organizer.KindIO},
	}
	for _, tc := range cases {
		if got := organizer.KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if err := organizer.Wrap(organizer.ErrNotFound, "stat", "/x", os.ErrNotExist); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("wrapped cause must stay reachable")
	}
}
