package weights

import (
	_ "embed"
	"os"
)

//go:embed default_scoring.json
var defaultScoring []byte

// Source supplies the raw weights resource.
type Source interface {
	// Name identifies the resource. A .yaml or .yml suffix selects YAML decoding.
	Name() string
	Read() ([]byte, error)
}

// FileSource reads weights from a file on disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Read() ([]byte, error) { return os.ReadFile(s.Path) }

// EmbeddedSource serves the default weights compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Name() string { return "embedded:default_scoring.json" }

func (EmbeddedSource) Read() ([]byte, error) { return defaultScoring, nil }

// BytesSource serves weights from memory.
type BytesSource struct {
	Label string
	Data  []byte
}

func (s BytesSource) Name() string { return s.Label }

func (s BytesSource) Read() ([]byte, error) { return s.Data, nil }

// SourceFor returns a FileSource for path, or the embedded default when path is empty.
func SourceFor(path string) Source {
	if path == "" {
		return EmbeddedSource{}
	}
	return FileSource{Path: path}
}
