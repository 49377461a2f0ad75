package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sink stores downloaded wiki files. The XML stream itself always goes
// to the Writer; sinks only ever see file-namespace binaries.
type Sink interface {
	WriteFile(name string, data []byte) error
}

// DirSink writes files into a flat directory.
type DirSink struct {
	dir string
}

// NewDirSink creates the directory if needed and returns a sink writing
// into it.
func NewDirSink(dir string) (*DirSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("save directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Dir returns the target directory.
func (s *DirSink) Dir() string {
	return s.dir
}

// WriteFile stores data under name inside the sink directory. Names
// with path separators are rejected; they would escape the directory.
func (s *DirSink) WriteFile(name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("empty filename")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("unsafe filename %q", name)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write file %s: %w", name, err)
	}
	return nil
}
