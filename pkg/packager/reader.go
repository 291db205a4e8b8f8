package packager

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/packsmith/pkg/compression"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/packs"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

// Archive gives read access to an installer written by Packager
type Archive struct {
	Path  string
	Packs []*packs.Pack

	main     *openZip
	external map[string]*openZip
}

type openZip struct {
	name    string
	file    afero.File
	zr      *zip.Reader
	entries map[string]*zip.File
}

// OpenArchive opens the main archive at path and the archives of its
// external packs, which must sit in the same directory.
func OpenArchive(fs afero.Fs, path string) (*Archive, error) {
	main, err := openZipFile(fs, path)
	if err != nil {
		return nil, err
	}
	a := &Archive{Path: path, main: main, external: make(map[string]*openZip)}

	meta, err := a.Resource(packs.MetadataEntry)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Packs, err = packs.ReadMetadata(bytes.NewReader(meta))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(path), ".jar")
	dir := filepath.Dir(path)
	for _, p := range a.Packs {
		if !p.External {
			continue
		}
		ext, err := openZipFile(fs, filepath.Join(dir, ExternalArchiveName(base, p.Name)))
		if err != nil {
			_ = a.Close()
			return nil, errors.Wrapf(err, errors.ErrArchiveRead, "external pack %q", p.Name)
		}
		a.external[p.Name] = ext
	}
	return a, nil
}

func openZipFile(fs afero.Fs, path string) (*openZip, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileNotFound, "failed to open archive %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat archive %s", path)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, errors.ErrArchiveRead, "%s is not a valid archive", path)
	}
	oz := &openZip{name: path, file: f, zr: zr, entries: make(map[string]*zip.File, len(zr.File))}
	for _, zf := range zr.File {
		oz.entries[zf.Name] = zf
	}
	return oz, nil
}

// Close releases every open archive
func (a *Archive) Close() error {
	var first error
	for _, z := range a.all() {
		if err := z.file.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, errors.ErrArchiveRead, "failed to close %s", z.name)
		}
	}
	return first
}

func (a *Archive) all() []*openZip {
	out := []*openZip{a.main}
	for _, p := range a.Packs {
		if z, ok := a.external[p.Name]; ok {
			out = append(out, z)
		}
	}
	return out
}

// Resource returns the content of an entry of the main archive
func (a *Archive) Resource(name string) ([]byte, error) {
	zf, ok := a.main.entries[name]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "archive has no %s entry", name)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrArchiveRead, "failed to open %s", name)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrArchiveRead, "failed to read %s", name)
	}
	return data, nil
}

// Pack returns the pack with the given name
func (a *Archive) Pack(name string) (*packs.Pack, bool) {
	return packs.Find(a.Packs, name)
}

func (a *Archive) zipFor(pack string) *openZip {
	if z, ok := a.external[pack]; ok {
		return z
	}
	return a.main
}

// Open returns the decompressed content of a pack file. Back-references are
// followed to the pack that holds the bytes.
func (a *Archive) Open(pack *packs.Pack, f *packs.PackFile) (io.ReadCloser, error) {
	z := a.zipFor(pack.Name)

	if f.IsPack200() {
		entry := packs.Pack200EntryName(f.Pack200ID)
		zf, ok := z.entries[entry]
		if !ok {
			return nil, errors.Newf(errors.ErrArchiveRead, "missing entry %s for %s", entry, f.Target)
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrArchiveRead, "failed to open %s", entry)
		}
		return decompressing(f.Compression, rc)
	}

	holder := pack.Name
	if f.Ref != nil {
		holder = f.Ref.Pack
		if a.zipFor(holder) != z {
			return nil, errors.Newf(errors.ErrArchiveRead, "back-reference from %q to %q crosses archives", pack.Name, holder)
		}
	}

	entry := packs.EntryPrefix + holder
	zf, ok := z.entries[entry]
	if !ok {
		return nil, errors.Newf(errors.ErrArchiveRead, "missing entry %s", entry)
	}
	if zf.Method != zip.Store {
		return nil, errors.Newf(errors.ErrArchiveRead, "pack entry %s must be stored uncompressed", entry)
	}
	base, err := zf.DataOffset()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrArchiveRead, "failed to locate %s", entry)
	}
	if f.Offset < 0 || f.Offset+f.StoredSize > int64(zf.UncompressedSize64) {
		return nil, errors.Newf(errors.ErrArchiveRead, "file %s lies outside %s", f.Target, entry)
	}

	section := io.NewSectionReader(z.file, base+f.Offset, f.StoredSize)
	return decompressing(f.Compression, io.NopCloser(section))
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func decompressing(format compression.Format, raw io.ReadCloser) (io.ReadCloser, error) {
	dec, err := compression.NewReader(format, raw)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &readCloser{Reader: dec, closers: []io.Closer{dec, raw}}, nil
}
