package parser

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem reads documents and turns relative paths into the absolute
// paths used as cache keys.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	Abs(name string) (string, error)
}

// OSFileSystem reads from the host file system.
type OSFileSystem struct{}

// ReadFile implements FileSystem.
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec // document paths are caller-provided
}

// Abs implements FileSystem.
func (OSFileSystem) Abs(name string) (string, error) {
	return filepath.Abs(name)
}

// FromFS adapts an fs.FS, such as an fstest.MapFS, to FileSystem.
// Paths are slash-separated and rooted at "/" so "/spec/a.yaml" reads
// "spec/a.yaml" from fsys.
func FromFS(fsys fs.FS) FileSystem {
	return ioFS{fsys: fsys}
}

type ioFS struct {
	fsys fs.FS
}

func (f ioFS) ReadFile(name string) ([]byte, error) {
	abs, _ := f.Abs(name)
	rel := strings.TrimPrefix(abs, "/")
	if rel == "" {
		rel = "."
	}
	return fs.ReadFile(f.fsys, rel)
}

func (f ioFS) Abs(name string) (string, error) {
	name = filepath.ToSlash(name)
	if !path.IsAbs(name) {
		name = "/" + name
	}
	return path.Clean(name), nil
}
