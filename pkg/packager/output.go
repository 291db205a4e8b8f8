package packager

import (
	"io"
	"path/filepath"

	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/spf13/afero"
)

// OutputFactory creates the archive files produced by a packaging run
type OutputFactory interface {
	Create(name string) (io.WriteCloser, error)
}

// DirOutput creates archives inside a directory of an afero filesystem
type DirOutput struct {
	FS  afero.Fs
	Dir string
}

// NewDirOutput returns a DirOutput, creating dir when needed
func NewDirOutput(fs afero.Fs, dir string) (*DirOutput, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create output directory %s", dir)
	}
	return &DirOutput{FS: fs, Dir: dir}, nil
}

// Create opens name for writing, truncating any previous file
func (d *DirOutput) Create(name string) (io.WriteCloser, error) {
	path := filepath.Join(d.Dir, name)
	f, err := d.FS.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileWrite, "failed to create %s", path)
	}
	return f, nil
}

// Path returns where an output of the given name is written
func (d *DirOutput) Path(name string) string {
	return filepath.Join(d.Dir, name)
}

// MainArchiveName is the file name of the main installer archive
func MainArchiveName(base string) string {
	return base + ".jar"
}

// ExternalArchiveName is the file name of an external pack's archive
func ExternalArchiveName(base, pack string) string {
	return base + ".pack-" + pack + ".jar"
}
