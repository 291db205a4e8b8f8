package packager

import (
	"encoding/hex"
	"io"

	"github.com/arthur-debert/packsmith/pkg/compression"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/packs"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"lukechampine.com/blake3"
)

// countingWriter tracks the offset inside an archive entry
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// storedContent is what a back-reference points at
type storedContent struct {
	pack        string
	offset      int64
	storedSize  int64
	compression compression.Format
}

type contentKey struct {
	archive string
	digest  string
}

// sizeKey marks a file size already stored in an archive. Only files of such
// a size can be duplicates and need hashing before they are written.
type sizeKey struct {
	archive string
	size    int64
}

type deferredFile struct {
	pack *packs.Pack
	file *packs.PackFile
}

// archive is one zip output with its dedup table and deferred files
type archive struct {
	name     string
	out      io.WriteCloser
	zw       *zip.Writer
	deferred []deferredFile
}

func newArchive(name string, out io.WriteCloser) *archive {
	return &archive{name: name, out: out, zw: zip.NewWriter(out)}
}

func (a *archive) createEntry(name string) (io.Writer, error) {
	w, err := a.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrArchiveWrite, "failed to create entry %s in %s", name, a.name)
	}
	return w, nil
}

// writeEntry stores a small deflated resource
func (a *archive) writeEntry(name string, data []byte) error {
	w, err := a.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return errors.Wrapf(err, errors.ErrArchiveWrite, "failed to create entry %s in %s", name, a.name)
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrapf(err, errors.ErrArchiveWrite, "failed to write entry %s", name)
	}
	return nil
}

func (a *archive) close() error {
	if err := a.zw.Close(); err != nil {
		_ = a.out.Close()
		return errors.Wrapf(err, errors.ErrArchiveWrite, "failed to finish %s", a.name)
	}
	if err := a.out.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrArchiveWrite, "failed to close %s", a.name)
	}
	return nil
}

// digestFile hashes a source file and checks it still has the expected size
func digestFile(fs afero.Fs, f *packs.PackFile) (string, error) {
	src, err := fs.Open(f.Source)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to open %s", f.Source)
	}
	defer func() { _ = src.Close() }()

	h := blake3.New(32, nil)
	n, err := io.Copy(h, src)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", f.Source)
	}
	if n != f.Size {
		return "", sizeMismatch(f, n)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyCompressed writes one file through a fresh compressor and returns the
// number of stored bytes and the blake3 digest of the content read.
func copyCompressed(fs afero.Fs, f *packs.PackFile, dst io.Writer, format compression.Format, level int) (int64, string, error) {
	src, err := fs.Open(f.Source)
	if err != nil {
		return 0, "", errors.Wrapf(err, errors.ErrFileAccess, "failed to open %s", f.Source)
	}
	defer func() { _ = src.Close() }()

	cw := &countingWriter{w: dst}
	zw, err := compression.NewWriter(format, cw, level)
	if err != nil {
		return 0, "", err
	}

	h := blake3.New(32, nil)
	n, err := io.Copy(zw, io.TeeReader(src, h))
	if err != nil {
		_ = zw.Close()
		return 0, "", errors.Wrapf(err, errors.ErrCompression, "failed to write %s", f.Source)
	}
	if err := zw.Close(); err != nil {
		return 0, "", errors.Wrapf(err, errors.ErrCompression, "failed to flush %s", f.Source)
	}
	if n != f.Size {
		return 0, "", sizeMismatch(f, n)
	}
	return cw.n, hex.EncodeToString(h.Sum(nil)), nil
}

func sizeMismatch(f *packs.PackFile, copied int64) error {
	return errors.Newf(errors.ErrSizeMismatch, "file %s changed size during packaging", f.Source).
		WithDetail("file", f.Source).
		WithDetail("expected", f.Size).
		WithDetail("copied", copied)
}
