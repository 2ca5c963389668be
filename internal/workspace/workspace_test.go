package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_EphemeralMode(t *testing.T) {
	mgr := NewManager(t.TempDir())
	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	wsPath := mgr.Path()
	if !strings.HasPrefix(filepath.Base(wsPath), "subdocs-") {
		t.Errorf("expected timestamped directory, got: %s", wsPath)
	}
	if _, err := os.Stat(wsPath); err != nil {
		t.Fatalf("workspace directory does not exist: %v", err)
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("workspace directory still exists after cleanup: %s", wsPath)
	}
	if mgr.Path() != "" {
		t.Errorf("expected empty path after cleanup")
	}
}

func TestManager_EphemeralDirsAreDistinct(t *testing.T) {
	base := t.TempDir()
	a, b := NewManager(base), NewManager(base)
	if err := a.Create(); err != nil {
		t.Fatal(err)
	}
	if err := b.Create(); err != nil {
		t.Fatal(err)
	}
	if a.Path() == b.Path() {
		t.Fatalf("two ephemeral workspaces share %s", a.Path())
	}
}

func TestManager_PersistentMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs", "_subrepos")
	mgr := NewPersistentManager(dir)
	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if mgr.Path() != dir {
		t.Errorf("expected path %s, got: %s", dir, mgr.Path())
	}

	marker := filepath.Join(dir, "marker.txt")
	if err := os.WriteFile(marker, []byte("persistent"), 0o600); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("marker removed from persistent workspace: %v", err)
	}
	if !mgr.Persistent() {
		t.Error("expected persistent manager")
	}
}
