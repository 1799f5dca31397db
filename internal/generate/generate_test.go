package generate

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var frozenNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func TestRenderDeterministic(t *testing.T) {
	in := Input{
		Type:         "static-site",
		Name:         "demo-site",
		Requirements: "one landing page",
		Now:          frozenNow,
	}

	first, err := Render(in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := Render(in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different output")
	}
}

func TestRenderStaticSite(t *testing.T) {
	files, err := Render(Input{Type: "static-site", Name: "demo", Now: frozenNow})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	byPath := make(map[string]string, len(files))
	for i, f := range files {
		byPath[f.Path] = f.Contents
		if i > 0 && files[i-1].Path > f.Path {
			t.Fatalf("files not sorted by path: %s before %s", files[i-1].Path, f.Path)
		}
	}

	for _, want := range []string{"index.html", "styles.css", "app.js", "README.md"} {
		if _, ok := byPath[want]; !ok {
			t.Fatalf("missing file %s", want)
		}
	}
	if !strings.Contains(byPath["index.html"], "<h1>demo</h1>") {
		t.Fatalf("index.html missing project name:\n%s", byPath["index.html"])
	}
	if !strings.Contains(byPath["README.md"], "none specified") {
		t.Fatalf("README should default empty requirements:\n%s", byPath["README.md"])
	}
	if !strings.Contains(byPath["README.md"], "2026-08-23T12:00:00Z") {
		t.Fatalf("README missing generated timestamp:\n%s", byPath["README.md"])
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	if _, err := Render(Input{Type: "static-site", Now: frozenNow}); err == nil {
		t.Fatalf("expected error for missing name")
	}
	_, err := Render(Input{Type: "spaceship", Name: "x", Now: frozenNow})
	if err == nil || !strings.Contains(err.Error(), "unknown project type") {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestProjectTypes(t *testing.T) {
	types := ProjectTypes()
	want := []string{"api", "cli", "static-site"}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
}

func TestWriteAndCheck(t *testing.T) {
	files, err := Render(Input{Type: "cli", Name: "hello", Now: frozenNow})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "hello")
	if err := Write(dir, files); err != nil {
		t.Fatalf("write: %v", err)
	}

	diff, err := Check(dir, files)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if diff != "" {
		t.Fatalf("expected clean check, got diff:\n%s", diff)
	}

	// A drifted file shows up in the diff.
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("edited\n"), 0o644); err != nil {
		t.Fatalf("mutate file: %v", err)
	}
	diff, err = Check(dir, files)
	if err != nil {
		t.Fatalf("check after mutation: %v", err)
	}
	if diff == "" || !strings.Contains(diff, "README.md") {
		t.Fatalf("expected diff naming README.md, got:\n%s", diff)
	}
}

func TestCheckMissingDirectory(t *testing.T) {
	files, err := Render(Input{Type: "api", Name: "svc", Now: frozenNow})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	diff, err := Check(filepath.Join(t.TempDir(), "never-written"), files)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if diff == "" {
		t.Fatalf("expected diff for missing output directory")
	}
}
