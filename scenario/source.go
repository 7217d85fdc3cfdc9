package scenario

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source yields scenario text. The engine opens a Source exactly once per
// Start.
type Source interface {
	Open() (io.ReadCloser, error)
	Name() string
}

// FileSource reads a scenario from Dir/File.
type FileSource struct {
	Dir  string
	File string
}

// Open opens the scenario file for reading.
func (s FileSource) Open() (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, s.File))
}

func (s FileSource) Name() string { return s.File }

// TextSource is an in-memory scenario blob.
type TextSource string

func (s TextSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

func (s TextSource) Name() string { return "<text>" }
