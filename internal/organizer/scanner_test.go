package organizer_test

import (
	"path/filepath"
	"testing"

	"filesorter/internal/organizer"
	"filesorter/internal/rules"
	"filesorter/internal/testsupport"
)

func TestScanIsSingleUse(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "a")
	testsupport.WriteFile(t, filepath.Join(root, "b.txt"), "b")

	seq, err := organizer.NewScanner(organizer.ScanOptions{}).Scan(root, ruleSet(t))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var names []string
	for file, err := range seq {
		if err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		names = append(names, file.Name)
	}
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Fatalf("unexpected candidates: %v", names)
	}
	for range seq {
		t.Fatal("second iteration must yield nothing")
	}
}

func TestScanStopsEarly(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		testsupport.WriteFile(t, filepath.Join(root, name), name)
	}
	seq, err := organizer.NewScanner(organizer.ScanOptions{Recursive: true}).Scan(root, ruleSet(t))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	count := 0
	for range seq {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("expected to stop after one, got %d", count)
	}
}

func TestScanCandidateFields(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, ".bashrc"), "x")
	testsupport.WriteFile(t, filepath.Join(root, "Photo.JPG"), "x")

	seq, err := organizer.NewScanner(organizer.ScanOptions{}).Scan(root, ruleSet(t, rules.Extension(".jpg", "Images")))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	got := map[string]rules.CandidateFile{}
	for file := range seq {
		got[file.Name] = file
	}
	if got[".bashrc"].Extension != "" {
		t.Fatalf("dot-file should have no extension: %+v", got[".bashrc"])
	}
	if photo := got["Photo.JPG"]; photo.Extension != ".JPG" || photo.Path != filepath.Join(root, "Photo.JPG") {
		t.Fatalf("unexpected candidate: %+v", photo)
	}
}
