// Package writer persists generated init scripts.
package writer

import (
	"os"
	"path"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
	"git.home.luguber.info/inful/initscript/internal/snippet"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// FileSystem is the capability the writer needs from the host.
type FileSystem interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// OSFileSystem writes to the local disk.
type OSFileSystem struct{}

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Writer writes output files below a directory, sequentially and in order.
// A failure stops the batch; files written before it are left in place.
type Writer struct {
	fs FileSystem
}

// New returns a Writer backed by fs; nil means the local disk.
func New(fs FileSystem) *Writer {
	if fs == nil {
		fs = OSFileSystem{}
	}
	return &Writer{fs: fs}
}

// Write ensures dir exists and writes every file into it, overwriting
// existing files. It returns the paths written so far, also on failure.
func (w *Writer) Write(dir string, files []snippet.OutputFile) ([]string, error) {
	if err := w.fs.MkdirAll(dir, dirPerm); err != nil {
		return nil, ioError(err, "failed to create output directory", dir)
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		target := filepath.Join(dir, filepath.FromSlash(f.Path))
		if path.Dir(f.Path) != "." {
			if err := w.fs.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
				return written, ioError(err, "failed to create output directory", filepath.Dir(target))
			}
		}
		if err := w.fs.WriteFile(target, []byte(f.Content), filePerm); err != nil {
			return written, ioError(err, "failed to write init script", target)
		}
		written = append(written, target)
	}
	return written, nil
}

func ioError(err error, message, p string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, message).
		Fatal().
		WithContext("path", p).
		Build()
}
