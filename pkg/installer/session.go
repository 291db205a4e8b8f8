package installer

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/arthur-debert/packsmith/pkg/config"
	"github.com/arthur-debert/packsmith/pkg/descriptor"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/logging"
	"github.com/arthur-debert/packsmith/pkg/packager"
	"github.com/arthur-debert/packsmith/pkg/packs"
	"github.com/arthur-debert/packsmith/pkg/rules"
	"github.com/arthur-debert/packsmith/pkg/variables"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Built-in variable names
const (
	VarInstallPath = "INSTALL_PATH"
	VarAppName     = "APP_NAME"
	VarAppVersion  = "APP_VER"
	VarAppURL      = "APP_URL"
	VarLanguage    = "ISO3_LANG"
	VarOSName      = "SYSTEM_OS_NAME"
	VarFileSep     = "FILE_SEPARATOR"
	VarUserHome    = "USER_HOME"
)

// DefaultLanguage is the ISO3 code used when none is chosen
const DefaultLanguage = "eng"

// Open reads an installer archive and its external pack archives
func Open(fs afero.Fs, path string) (*packager.Archive, error) {
	return packager.OpenArchive(fs, path)
}

// Session is one installation in progress
type Session struct {
	archive  *packager.Archive
	desc     *descriptor.Descriptor
	rules    *rules.Engine
	vars     *variables.Variables
	selected map[string]bool
	logger   zerolog.Logger
}

// NewSession prepares an installation. fs is the filesystem seen by file
// conditions and config file variables, normally the install target.
func NewSession(fs afero.Fs, archive *packager.Archive, cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	raw, err := archive.Resource(packs.DescriptorEntry)
	if err != nil {
		return nil, err
	}
	desc, err := descriptor.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	engine, err := desc.Rules(rules.WithFS(fs))
	if err != nil {
		return nil, err
	}
	vars, err := desc.NewVariables(engine, variables.WithFS(fs))
	if err != nil {
		return nil, err
	}

	s := &Session{
		archive:  archive,
		desc:     desc,
		rules:    engine,
		vars:     vars,
		selected: make(map[string]bool),
		logger:   logging.GetLogger("installer"),
	}
	s.seed(cfg)

	for _, name := range packs.Preselected(archive.Packs) {
		s.selected[name] = true
	}

	s.logger.Debug().
		Str("app", desc.Info.AppName).
		Int("packs", len(archive.Packs)).
		Int("conditions", engine.Len()).
		Msg("Session ready")
	return s, nil
}

// seed sets the built-in variables the descriptor did not set itself
func (s *Session) seed(cfg *config.Config) {
	info := s.desc.Info
	defaults := map[string]string{
		VarAppName:    info.AppName,
		VarAppVersion: info.AppVersion,
		VarAppURL:     info.URL,
		VarLanguage:   DefaultLanguage,
		VarOSName:     runtime.GOOS,
		VarFileSep:    string(filepath.Separator),
	}
	if home, err := os.UserHomeDir(); err == nil {
		defaults[VarUserHome] = home
	}

	installPath := cfg.Install.DefaultPath
	if installPath == "" {
		name := info.AppName
		if name == "" {
			name = "app"
		}
		installPath = path.Join("/usr/local", name)
	}
	defaults[VarInstallPath] = installPath

	for name, value := range defaults {
		if _, ok := s.vars.Lookup(name); !ok {
			s.vars.Set(name, value)
		}
	}
}

// Close releases the archive
func (s *Session) Close() error {
	return s.archive.Close()
}

// Variable implements rules.Context
func (s *Session) Variable(name string) (string, bool) {
	return s.vars.Variable(name)
}

// IsPackSelected implements rules.PackSelection
func (s *Session) IsPackSelected(name string) bool {
	return s.selected[name]
}

// Descriptor returns the embedded descriptor
func (s *Session) Descriptor() *descriptor.Descriptor {
	return s.desc
}

// Packs returns the archive's packs
func (s *Session) Packs() []*packs.Pack {
	return s.archive.Packs
}

// Vars returns the variable store
func (s *Session) Vars() *variables.Variables {
	return s.vars
}

// Set assigns a variable
func (s *Session) Set(name, value string) {
	s.vars.Set(name, value)
}

// Variables returns a copy of all variable values
func (s *Session) Variables() map[string]string {
	return s.vars.Snapshot()
}

// IsConditionTrue evaluates a condition id or expression against the
// session state.
func (s *Session) IsConditionTrue(expr string) (bool, error) {
	return s.rules.IsConditionTrue(expr, s)
}

// Refresh recomputes dynamic variables. Pack selection is visible to their
// conditions.
func (s *Session) Refresh() error {
	return s.vars.RefreshWith(s)
}

// Select marks packs as selected
func (s *Session) Select(names ...string) error {
	if err := s.checkNames(names); err != nil {
		return err
	}
	for _, n := range names {
		s.selected[n] = true
	}
	return nil
}

// Deselect clears packs from the selection. Required packs stay selected.
func (s *Session) Deselect(names ...string) error {
	if err := s.checkNames(names); err != nil {
		return err
	}
	for _, n := range names {
		if p, _ := packs.Find(s.archive.Packs, n); p.Required {
			return errors.Newf(errors.ErrPackInvalid, "pack %q is required", n)
		}
	}
	for _, n := range names {
		delete(s.selected, n)
	}
	return nil
}

// SelectOnly replaces the selection. Required packs are always kept.
func (s *Session) SelectOnly(names []string) error {
	if err := s.checkNames(names); err != nil {
		return err
	}
	s.selected = make(map[string]bool, len(names))
	for _, p := range s.archive.Packs {
		if p.Required {
			s.selected[p.Name] = true
		}
	}
	for _, n := range names {
		s.selected[n] = true
	}
	return nil
}

// SelectedPacks returns the selected pack names in archive order
func (s *Session) SelectedPacks() []string {
	var out []string
	for _, p := range s.archive.Packs {
		if s.selected[p.Name] {
			out = append(out, p.Name)
		}
	}
	return out
}

func (s *Session) checkNames(names []string) error {
	var unknown []string
	for _, n := range names {
		if _, ok := packs.Find(s.archive.Packs, n); !ok {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return errors.New(errors.ErrPackNotFound, "pack(s) not found").
			WithDetail("notFound", unknown).
			WithDetail("available", packs.Names(s.archive.Packs))
	}
	return nil
}
