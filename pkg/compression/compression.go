// Package compression provides the per-file compression filters used when
// writing pack streams. A fresh writer is created for every file so that no
// compressor state crosses file boundaries; readers consume exactly one
// file's stored bytes.
package compression

import (
	"io"
	"strings"

	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// Format identifies a compression filter
type Format string

const (
	Raw     Format = "raw"
	Deflate Format = "deflate"
	Gzip    Format = "gzip"
	XZ      Format = "xz"
	Zstd    Format = "zstd"
)

// PackedStream is the codec for files that get a dedicated stream. Its
// decoder reads to the end of the stream, so nothing else may share it.
const PackedStream = XZ

// DefaultLevel asks the codec for its own default level
const DefaultLevel = -1

// Codec creates compressing writers and decompressing readers
type Codec interface {
	Format() Format
	NewWriter(w io.Writer, level int) (io.WriteCloser, error)
	NewReader(r io.Reader) (io.ReadCloser, error)
}

var codecs = map[Format]Codec{
	Raw:     rawCodec{},
	Deflate: deflateCodec{},
	Gzip:    gzipCodec{},
	XZ:      xzCodec{},
	Zstd:    zstdCodec{},
}

// Formats returns the supported format names
func Formats() []Format {
	return []Format{Raw, Deflate, Gzip, XZ, Zstd}
}

// Parse maps a user supplied name to a Format. "none" and "" mean raw.
func Parse(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", "none", "store":
		return Raw, nil
	default:
		if _, ok := codecs[f]; ok {
			return f, nil
		}
	}
	return "", errors.Newf(errors.ErrConfigValid, "unknown compression format %q", name).
		WithDetail("supported", Formats())
}

// Lookup returns the codec for a format. An empty format is raw.
func Lookup(f Format) (Codec, error) {
	if f == "" {
		f = Raw
	}
	c, ok := codecs[f]
	if !ok {
		return nil, errors.Newf(errors.ErrCompression, "unsupported compression format %q", f)
	}
	return c, nil
}

// ValidLevel reports whether level is accepted by every codec
func ValidLevel(level int) bool {
	return level == DefaultLevel || (level >= 0 && level <= 9)
}

// NewWriter is a shortcut for Lookup followed by Codec.NewWriter
func NewWriter(f Format, w io.Writer, level int) (io.WriteCloser, error) {
	c, err := Lookup(f)
	if err != nil {
		return nil, err
	}
	wc, err := c.NewWriter(w, level)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCompression, "failed to create %s writer", f)
	}
	return wc, nil
}

// NewReader is a shortcut for Lookup followed by Codec.NewReader
func NewReader(f Format, r io.Reader) (io.ReadCloser, error) {
	c, err := Lookup(f)
	if err != nil {
		return nil, err
	}
	rc, err := c.NewReader(r)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCompression, "failed to create %s reader", f)
	}
	return rc, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type rawCodec struct{}

func (rawCodec) Format() Format { return Raw }

func (rawCodec) NewWriter(w io.Writer, _ int) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (rawCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type deflateCodec struct{}

func (deflateCodec) Format() Format { return Deflate }

func (deflateCodec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	return flate.NewWriter(w, level)
}

func (deflateCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}

type gzipCodec struct{}

func (gzipCodec) Format() Format { return Gzip }

func (gzipCodec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	return pgzip.NewWriterLevel(w, level)
}

func (gzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return pgzip.NewReader(r)
}

type xzCodec struct{}

func (xzCodec) Format() Format { return XZ }

func (xzCodec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	if level <= 0 {
		return xz.NewWriter(w)
	}
	cfg := xz.WriterConfig{DictCap: 1 << (16 + level)}
	return cfg.NewWriter(w)
}

func (xzCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

type zstdCodec struct{}

func (zstdCodec) Format() Format { return Zstd }

func (zstdCodec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	opts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
	if level > 0 {
		opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	return zstd.NewWriter(w, opts...)
}

func (zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}
