package packager

import (
	"bytes"
	"path"
	"strings"

	"github.com/arthur-debert/packsmith/pkg/compression"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/logging"
	"github.com/arthur-debert/packsmith/pkg/packs"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DefaultName is the installer base name used when Options.Name is empty
const DefaultName = "install"

// Options controls how packs are stored
type Options struct {
	// Name is the installer base name; the main archive is <Name>.jar
	Name string

	Format compression.Format
	Level  int

	// Pack200 routes *.jar payloads to dedicated streams
	Pack200 bool
}

// Result summarizes a packaging run
type Result struct {
	Outputs      []string
	Packs        int
	Files        int
	BackRefs     int
	Pack200      int
	Uncompressed int64
	Stored       int64
}

type resource struct {
	name string
	data []byte
}

// Packager collects packs and resources and writes them to archives
type Packager struct {
	src       afero.Fs
	opts      Options
	packs     []*packs.Pack
	resources []resource
	logger    zerolog.Logger
}

// New creates a Packager reading payload files from src
func New(src afero.Fs, opts Options) *Packager {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Format == "" {
		opts.Format = compression.Raw
	}
	return &Packager{
		src:    src,
		opts:   opts,
		logger: logging.GetLogger("packager"),
	}
}

// AddPack appends a pack. Packs are written in the order they are added.
func (p *Packager) AddPack(pack *packs.Pack) error {
	if pack == nil || pack.Name == "" {
		return errors.New(errors.ErrPackInvalid, "pack has no name")
	}
	if _, dup := packs.Find(p.packs, pack.Name); dup {
		return errors.Newf(errors.ErrPackInvalid, "pack %q added twice", pack.Name)
	}
	p.packs = append(p.packs, pack)
	return nil
}

// AddResource stores an extra entry in the main archive. Adding a name
// twice replaces the earlier data.
func (p *Packager) AddResource(name string, data []byte) {
	for i := range p.resources {
		if p.resources[i].name == name {
			p.resources[i].data = data
			return
		}
	}
	p.resources = append(p.resources, resource{name: name, data: data})
}

// Packs returns the packs added so far
func (p *Packager) Packs() []*packs.Pack {
	return p.packs
}

// Write streams all packs into archives created by out. The main archive
// is closed last, after the pack metadata has been written with the final
// sizes. Any error aborts the run.
func (p *Packager) Write(out OutputFactory) (*Result, error) {
	done := logging.LogOperationStart(p.logger, "packaging")
	defer done()

	if _, err := compression.Lookup(p.opts.Format); err != nil {
		return nil, err
	}
	if err := packs.Validate(p.packs); err != nil {
		return nil, err
	}

	mainName := MainArchiveName(p.opts.Name)
	w, err := out.Create(mainName)
	if err != nil {
		return nil, err
	}
	main := newArchive(mainName, w)

	run := &writeRun{
		Packager: p,
		result:   &Result{Outputs: []string{mainName}},
		stored:   make(map[contentKey]storedContent),
		sizes:    make(map[sizeKey]bool),
	}

	if err := run.writeAll(main, out); err != nil {
		_ = main.zw.Close()
		_ = main.out.Close()
		p.logger.Error().Err(err).Str("archive", mainName).Msg("Packaging aborted")
		return nil, err
	}
	if err := main.close(); err != nil {
		return nil, err
	}

	p.logger.Info().
		Int("packs", run.result.Packs).
		Int("files", run.result.Files).
		Int("backrefs", run.result.BackRefs).
		Int64("stored", run.result.Stored).
		Msg("Packaging complete")
	return run.result, nil
}

// writeRun holds the state of a single Write call
type writeRun struct {
	*Packager
	result      *Result
	stored      map[contentKey]storedContent
	sizes       map[sizeKey]bool
	nextPack200 int
}

func (r *writeRun) writeAll(main *archive, out OutputFactory) error {
	for _, pack := range r.packs {
		pack.Size, pack.FileSize = 0, 0

		if !pack.External {
			if err := r.writePack(main, pack); err != nil {
				return err
			}
			continue
		}

		name := ExternalArchiveName(r.opts.Name, pack.Name)
		w, err := out.Create(name)
		if err != nil {
			return err
		}
		ext := newArchive(name, w)
		r.result.Outputs = append(r.result.Outputs, name)

		err = r.writePack(ext, pack)
		if err == nil {
			err = r.writeDeferred(ext)
		}
		if err != nil {
			_ = ext.zw.Close()
			_ = ext.out.Close()
			return err
		}
		if err := ext.close(); err != nil {
			return err
		}
	}

	if err := r.writeDeferred(main); err != nil {
		return err
	}

	for _, res := range r.resources {
		if err := main.writeEntry(res.name, res.data); err != nil {
			return err
		}
	}

	var meta bytes.Buffer
	if err := packs.WriteMetadata(&meta, r.packs); err != nil {
		return err
	}
	return main.writeEntry(packs.MetadataEntry, meta.Bytes())
}

func (r *writeRun) writePack(a *archive, pack *packs.Pack) error {
	logger := r.logger.With().Str("pack", pack.Name).Str("archive", a.name).Logger()
	logger.Debug().Int("files", len(pack.Files)).Msg("Writing pack")

	entry, err := a.createEntry(pack.EntryName())
	if err != nil {
		return err
	}
	cw := &countingWriter{w: entry}

	for _, f := range pack.Files {
		pack.Size += f.Size
		r.result.Files++
		r.result.Uncompressed += f.Size
		f.Ref = nil
		f.Pack200ID = -1

		if r.opts.Pack200 && isPack200Candidate(f.Source) {
			f.Pack200ID = r.nextPack200
			r.nextPack200++
			a.deferred = append(a.deferred, deferredFile{pack: pack, file: f})
			continue
		}

		size := sizeKey{archive: a.name, size: f.Size}
		if r.sizes[size] {
			digest, err := digestFile(r.src, f)
			if err != nil {
				return err
			}
			if prev, ok := r.stored[contentKey{archive: a.name, digest: digest}]; ok {
				f.Ref = &packs.BackRef{Pack: prev.pack, Offset: prev.offset}
				f.Offset = prev.offset
				f.StoredSize = prev.storedSize
				f.Compression = prev.compression
				r.result.BackRefs++
				logger.Debug().Str("file", f.Source).Str("refpack", prev.pack).Int64("offset", prev.offset).Msg("Stored as back-reference")
				continue
			}
		}

		f.Offset = cw.n
		f.Compression = r.opts.Format
		n, digest, err := copyCompressed(r.src, f, cw, r.opts.Format, r.opts.Level)
		if err != nil {
			return errors.Wrapf(err, errors.GetErrorCode(err), "pack %q", pack.Name)
		}
		key := contentKey{archive: a.name, digest: digest}
		r.sizes[size] = true
		f.StoredSize = n
		pack.FileSize += n
		r.result.Stored += n
		r.stored[key] = storedContent{
			pack:        pack.Name,
			offset:      f.Offset,
			storedSize:  n,
			compression: f.Compression,
		}
	}

	r.result.Packs++
	return nil
}

// writeDeferred writes each deferred file to its own entry
func (r *writeRun) writeDeferred(a *archive) error {
	for _, d := range a.deferred {
		entry, err := a.createEntry(packs.Pack200EntryName(d.file.Pack200ID))
		if err != nil {
			return err
		}
		n, _, err := copyCompressed(r.src, d.file, entry, compression.PackedStream, r.opts.Level)
		if err != nil {
			return errors.Wrapf(err, errors.GetErrorCode(err), "pack %q", d.pack.Name)
		}
		d.file.Offset = 0
		d.file.StoredSize = n
		d.file.Compression = compression.PackedStream
		d.pack.FileSize += n
		r.result.Stored += n
		r.result.Pack200++
	}
	a.deferred = nil
	return nil
}

func isPack200Candidate(source string) bool {
	return strings.EqualFold(path.Ext(source), ".jar")
}
