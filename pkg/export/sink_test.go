package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirSink_WriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "files")
	sink, err := NewDirSink(dir)
	if err != nil {
		t.Fatalf("NewDirSink failed: %v", err)
	}
	if sink.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", sink.Dir(), dir)
	}

	if err := sink.WriteFile("Logo.png", []byte("image data")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Logo.png"))
	if err != nil {
		t.Fatalf("reading written file failed: %v", err)
	}
	if string(data) != "image data" {
		t.Errorf("file content = %q, want image data", data)
	}
}

func TestDirSink_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "files")
	if _, err := NewDirSink(dir); err != nil {
		t.Fatalf("NewDirSink failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("sink target is not a directory")
	}
}

func TestDirSink_RejectsUnsafeNames(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirSink failed: %v", err)
	}

	for _, name := range []string{"", "sub/file.png", `sub\file.png`, ".", "..", "../escape.png"} {
		if err := sink.WriteFile(name, []byte("x")); err == nil {
			t.Errorf("WriteFile(%q) should fail", name)
		}
	}
}

func TestNewDirSink_EmptyDir(t *testing.T) {
	if _, err := NewDirSink(""); err == nil {
		t.Error("empty directory should fail")
	}
}
