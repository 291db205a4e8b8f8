// Package compiler turns an install descriptor and its payload files into
// installer archives.
package compiler

import (
	"os"
	"path"
	"path/filepath"

	"github.com/arthur-debert/packsmith/pkg/config"
	"github.com/arthur-debert/packsmith/pkg/descriptor"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/logging"
	"github.com/arthur-debert/packsmith/pkg/packager"
	"github.com/arthur-debert/packsmith/pkg/packs"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Options for a compile run
type Options struct {
	// Descriptor is the path of install.xml
	Descriptor string

	// BaseDir resolves relative sources; defaults to the descriptor's directory
	BaseDir string

	// Config supplies compression and output settings; nil means defaults
	Config *config.Config
}

// Summary describes what was written
type Summary struct {
	Outputs      []string
	Packs        int
	Files        int
	BackRefs     int
	Pack200      int
	Uncompressed int64
	Stored       int64
}

// Compile reads the descriptor, expands its file specs, and writes the
// installer archives.
func Compile(fs afero.Fs, opts Options) (*Summary, error) {
	logger := logging.GetLogger("compiler")
	done := logging.LogOperationStart(logger, "compile")
	defer done()

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d, err := descriptor.ParseFile(fs, opts.Descriptor)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(opts.Descriptor)
	}

	list, err := BuildPacks(fs, baseDir, d)
	if err != nil {
		return nil, err
	}

	p := packager.New(fs, packager.Options{
		Name:    cfg.Output.Name,
		Format:  cfg.Format(),
		Level:   cfg.Compression.Level,
		Pack200: cfg.Pack200,
	})
	for _, pack := range list {
		if err := p.AddPack(pack); err != nil {
			return nil, err
		}
	}
	p.AddResource(packs.DescriptorEntry, d.Raw)

	out, err := packager.NewDirOutput(fs, cfg.Output.Dir)
	if err != nil {
		return nil, err
	}
	res, err := p.Write(out)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Packs:        res.Packs,
		Files:        res.Files,
		BackRefs:     res.BackRefs,
		Pack200:      res.Pack200,
		Uncompressed: res.Uncompressed,
		Stored:       res.Stored,
	}
	for _, name := range res.Outputs {
		summary.Outputs = append(summary.Outputs, out.Path(name))
	}

	logger.Info().
		Str("descriptor", opts.Descriptor).
		Strs("outputs", summary.Outputs).
		Int("packs", summary.Packs).
		Int("files", summary.Files).
		Msg("Compiled installer")
	return summary, nil
}

// BuildPacks converts the descriptor's pack specs into packs with their
// file lists, reading sizes and modes from fs.
func BuildPacks(fs afero.Fs, baseDir string, d *descriptor.Descriptor) ([]*packs.Pack, error) {
	var out []*packs.Pack
	for _, spec := range d.Packs {
		p := &packs.Pack{
			Name:        spec.Name,
			ID:          spec.ID,
			Description: spec.Description,
			LangPackID:  spec.LangPackID,
			Required:    spec.Required,
			Preselected: spec.Preselected,
			Hidden:      spec.Hidden,
			External:    spec.External,
			Condition:   spec.Condition,
			Depends:     spec.Depends,
		}

		for _, f := range spec.Files {
			files, err := expandFile(fs, baseDir, f)
			if err != nil {
				return nil, errors.Wrapf(err, errors.GetErrorCode(err), "pack %q", spec.Name)
			}
			p.Files = append(p.Files, files...)
		}
		for _, set := range spec.FileSets {
			files, err := expandFileSet(fs, baseDir, set)
			if err != nil {
				return nil, errors.Wrapf(err, errors.GetErrorCode(err), "pack %q", spec.Name)
			}
			p.Files = append(p.Files, files...)
		}
		out = append(out, p)
	}

	if err := packs.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// expandFile handles <file>. A directory source is added recursively below
// targetdir/<dirname>.
func expandFile(fs afero.Fs, baseDir string, spec descriptor.FileSpec) ([]*packs.PackFile, error) {
	src := resolve(baseDir, spec.Src)
	info, err := fs.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileNotFound, "source %s does not exist", src)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat %s", src)
	}

	if !info.IsDir() {
		target := spec.Target
		if target == "" {
			target = path.Join(spec.TargetDir, filepath.Base(src))
		}
		f := packs.NewPackFile(src, target, info.Size(), info.Mode().Perm())
		f.Parse = spec.Parse
		f.Condition = spec.Condition
		return []*packs.PackFile{f}, nil
	}

	targetDir := spec.Target
	if targetDir == "" {
		targetDir = path.Join(spec.TargetDir, filepath.Base(src))
	}
	return walk(fs, src, func(rel string) (string, bool, error) {
		return path.Join(targetDir, rel), true, nil
	}, spec.Parse, spec.Condition)
}

// expandFileSet handles <fileset> with doublestar includes and excludes
func expandFileSet(fs afero.Fs, baseDir string, spec descriptor.FileSetSpec) ([]*packs.PackFile, error) {
	for _, pattern := range append(append([]string{}, spec.Includes...), spec.Excludes...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Newf(errors.ErrDescriptorInvalid, "invalid fileset pattern %q", pattern)
		}
	}

	dir := resolve(baseDir, spec.Dir)
	if ok, err := afero.DirExists(fs, dir); err != nil || !ok {
		return nil, errors.Newf(errors.ErrFileNotFound, "fileset directory %s does not exist", dir)
	}

	return walk(fs, dir, func(rel string) (string, bool, error) {
		if !matchAny(spec.Includes, rel, true) || matchAny(spec.Excludes, rel, false) {
			return "", false, nil
		}
		return path.Join(spec.TargetDir, rel), true, nil
	}, spec.Parse, spec.Condition)
}

// matchAny reports whether rel matches one of the patterns. An empty list
// yields whenEmpty.
func matchAny(patterns []string, rel string, whenEmpty bool) bool {
	if len(patterns) == 0 {
		return whenEmpty
	}
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

type targetFunc func(rel string) (target string, include bool, err error)

// walk collects the regular files below root in lexical order
func walk(fs afero.Fs, root string, target targetFunc, parse bool, condition string) ([]*packs.PackFile, error) {
	var files []*packs.PackFile
	err := afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		t, ok, err := target(filepath.ToSlash(rel))
		if err != nil || !ok {
			return err
		}
		f := packs.NewPackFile(p, t, info.Size(), info.Mode().Perm())
		f.Parse = parse
		f.Condition = condition
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to scan %s", root)
	}
	return files, nil
}
