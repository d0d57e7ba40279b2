package persona

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir changes the working directory for the duration of the test,
// restoring the original directory on cleanup (t.Chdir needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoad_DefaultWhenNoFile(t *testing.T) {
	chdir(t, t.TempDir())
	if got := Load(); got != Default {
		t.Fatalf("expected built-in default, got %q", got)
	}
}

func TestLoad_ReadsFileFromParentDirectory(t *testing.T) {
	root := t.TempDir()
	content := "You are a terse scholarship robot.\n"
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	child := filepath.Join(root, "nested", "deeper")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}
	chdir(t, child)

	if got := Load(); got != "You are a terse scholarship robot." {
		t.Fatalf("expected persona file contents, got %q", got)
	}
}

func TestLoad_EmptyFileFallsBack(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, root)

	if got := Load(); got != Default {
		t.Fatalf("expected built-in default for empty file, got %q", got)
	}
}
