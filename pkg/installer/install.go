package installer

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/logging"
	"github.com/arthur-debert/packsmith/pkg/packs"
	"github.com/spf13/afero"
)

// Report describes a finished installation
type Report struct {
	InstallPath string
	Packs       []string
	Installed   []string
	Skipped     []string
	Bytes       int64
}

// Install refreshes the variables, resolves the selected packs with their
// dependencies, and extracts every file whose condition holds onto target.
// Target paths are expanded against the variables; files marked for
// parsing have their content expanded too.
func (s *Session) Install(target afero.Fs) (*Report, error) {
	done := logging.LogOperationStart(s.logger, "install")
	defer done()

	if err := s.Refresh(); err != nil {
		return nil, err
	}

	set, err := packs.Resolve(s.archive.Packs, s.SelectedPacks(), s.IsConditionTrue)
	if err != nil {
		return nil, err
	}

	report := &Report{InstallPath: s.vars.Get(VarInstallPath)}
	for _, pack := range set {
		report.Packs = append(report.Packs, pack.Name)
		for _, f := range pack.Files {
			if f.Condition != "" {
				ok, err := s.IsConditionTrue(f.Condition)
				if err != nil {
					return nil, errors.Wrapf(err, errors.GetErrorCode(err), "condition of %s", f.Target)
				}
				if !ok {
					report.Skipped = append(report.Skipped, s.targetPath(f))
					continue
				}
			}

			dest, n, err := s.extract(target, pack, f)
			if err != nil {
				return nil, errors.Wrapf(err, errors.GetErrorCode(err), "pack %q", pack.Name)
			}
			report.Installed = append(report.Installed, dest)
			report.Bytes += n
		}
		s.logger.Info().Str("pack", pack.Name).Int("files", len(pack.Files)).Msg("Installed pack")
	}
	return report, nil
}

func (s *Session) extract(target afero.Fs, pack *packs.Pack, f *packs.PackFile) (string, int64, error) {
	dest := s.targetPath(f)
	if strings.Contains(dest, "$") {
		s.logger.Warn().Str("target", dest).Msg("Target path still contains unresolved variables")
	}
	if err := target.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", 0, errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory for %s", dest)
	}

	rc, err := s.archive.Open(pack, f)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = rc.Close() }()

	mode := f.Mode.Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := target.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return "", 0, errors.Wrapf(err, errors.ErrFileWrite, "failed to create %s", dest)
	}

	var n int64
	if f.Parse {
		n, err = s.copyParsed(out, rc, f)
	} else {
		n, err = io.Copy(out, rc)
		if err != nil {
			err = errors.Wrapf(err, errors.ErrArchiveRead, "failed to extract %s", f.Target)
		} else if n != f.Size {
			err = errors.Newf(errors.ErrSizeMismatch, "%s: archive holds %d bytes, expected %d", f.Target, n, f.Size)
		}
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		err = errors.Wrapf(cerr, errors.ErrFileWrite, "failed to close %s", dest)
	}
	if err != nil {
		return "", 0, errors.Wrapf(err, errors.GetErrorCode(err), "failed to install %s", dest)
	}
	if err := target.Chmod(dest, mode); err != nil {
		return "", 0, errors.Wrapf(err, errors.ErrFileWrite, "failed to set mode of %s", dest)
	}

	s.logger.Debug().Str("file", dest).Int64("bytes", n).Bool("parsed", f.Parse).Msg("Installed file")
	return dest, n, nil
}

// targetPath expands variables in the file's target
func (s *Session) targetPath(f *packs.PackFile) string {
	return filepath.Clean(filepath.FromSlash(s.vars.Replace(f.Target)))
}

// copyParsed substitutes variables in the file content
func (s *Session) copyParsed(w io.Writer, r io.Reader, f *packs.PackFile) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrArchiveRead, "failed to read %s", f.Target)
	}
	if int64(len(data)) != f.Size {
		return 0, errors.Newf(errors.ErrSizeMismatch, "%s: archive holds %d bytes, expected %d", f.Target, len(data), f.Size)
	}
	n, err := io.WriteString(w, s.vars.Replace(string(data)))
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", f.Target)
	}
	return int64(n), nil
}
