package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLayout(t *testing.T) {
	root := t.TempDir()

	ws, err := Resolve(root)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ws.Root != root {
		t.Fatalf("expected root %s, got %s", root, ws.Root)
	}
	if ws.StateDBPath != filepath.Join(root, "state", "steward.sqlite") {
		t.Fatalf("unexpected state db path: %s", ws.StateDBPath)
	}
	if ws.AuditDBPath != filepath.Join(root, "audit", "audit.sqlite") {
		t.Fatalf("unexpected audit db path: %s", ws.AuditDBPath)
	}
	if ws.SnapshotsDir != filepath.Join(root, "artifacts", "status") {
		t.Fatalf("unexpected snapshots dir: %s", ws.SnapshotsDir)
	}
	if ws.ProjectsDir != filepath.Join(root, "artifacts", "projects") {
		t.Fatalf("unexpected projects dir: %s", ws.ProjectsDir)
	}
}

func TestResolveRejectsMissingRoot(t *testing.T) {
	if _, err := Resolve(""); err == nil {
		t.Fatalf("expected error for empty root")
	}
	if _, err := Resolve(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for nonexistent root")
	}
}

func TestResolveRootDoesNotRequireExistence(t *testing.T) {
	target := filepath.Join(t.TempDir(), "future")
	abs, err := ResolveRoot(target)
	if err != nil {
		t.Fatalf("resolve root: %v", err)
	}
	if abs != target {
		t.Fatalf("expected %s, got %s", target, abs)
	}
}

func TestEnsureDirs(t *testing.T) {
	ws, err := Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := ws.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}

	for _, dir := range []string{ws.StateDir, ws.AuditDir, ws.OptionsDir, ws.SnapshotsDir, ws.ProjectsDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestResolvePath(t *testing.T) {
	ws, err := Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	rel, err := ws.ResolvePath("options/sample.yml")
	if err != nil {
		t.Fatalf("resolve relative: %v", err)
	}
	if rel != filepath.Join(ws.Root, "options", "sample.yml") {
		t.Fatalf("unexpected resolved path: %s", rel)
	}

	abs, err := ws.ResolvePath("/etc/hosts")
	if err != nil {
		t.Fatalf("resolve absolute: %v", err)
	}
	if abs != "/etc/hosts" {
		t.Fatalf("absolute path should pass through, got %s", abs)
	}

	empty, err := ws.ResolvePath("  ")
	if err != nil {
		t.Fatalf("resolve blank: %v", err)
	}
	if empty != "" {
		t.Fatalf("expected empty result for blank path, got %q", empty)
	}
}
