package variables

import (
	"sort"

	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/logging"
	"github.com/arthur-debert/packsmith/pkg/placeholders"
	"github.com/arthur-debert/packsmith/pkg/rules"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Variables is the install variable store plus its dynamic declarations
type Variables struct {
	values   map[string]string
	dynamic  map[string][]*DynamicVariable
	dynOrder []string
	pinned   map[string]bool
	rules    *rules.Engine
	fs       afero.Fs
	logger   zerolog.Logger
}

// Option configures a Variables store
type Option func(*Variables)

// WithFS sets the filesystem that config file sources read from
func WithFS(fs afero.Fs) Option {
	return func(v *Variables) {
		v.fs = fs
	}
}

// New creates an empty store. The engine evaluates dynamic variable
// conditions and may be nil when no declaration uses one.
func New(engine *rules.Engine, opts ...Option) *Variables {
	v := &Variables{
		values:  make(map[string]string),
		dynamic: make(map[string][]*DynamicVariable),
		pinned:  make(map[string]bool),
		rules:   engine,
		fs:      afero.NewOsFs(),
		logger:  logging.GetLogger("variables"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Get returns the value of a variable, or "" when it is unset
func (v *Variables) Get(name string) string {
	return v.values[name]
}

// Lookup returns the value and whether the variable is set
func (v *Variables) Lookup(name string) (string, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Variable implements rules.Context
func (v *Variables) Variable(name string) (string, bool) {
	return v.Lookup(name)
}

// Set assigns a value
func (v *Variables) Set(name, value string) {
	v.values[name] = value
}

// SetAll assigns every entry of values
func (v *Variables) SetAll(values map[string]string) {
	for k, val := range values {
		v.values[k] = val
	}
}

// Unset removes a variable
func (v *Variables) Unset(name string) {
	delete(v.values, name)
}

// Names returns the set variable names, sorted
func (v *Variables) Names() []string {
	names := make([]string, 0, len(v.values))
	for k := range v.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of all values
func (v *Variables) Snapshot() map[string]string {
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// Replace substitutes variable references in s with current values.
// Unknown references are kept as written.
func (v *Variables) Replace(s string) string {
	return placeholders.Expand(s, v.Lookup)
}

// Rules returns the engine used for dynamic variable conditions
func (v *Variables) Rules() *rules.Engine {
	return v.rules
}

// FS returns the filesystem used by config file sources
func (v *Variables) FS() afero.Fs {
	return v.fs
}

// AddDynamic appends a declaration. Declarations for the same name are
// tried in the order they were added.
func (v *Variables) AddDynamic(dv *DynamicVariable) error {
	if dv == nil || dv.Name == "" {
		return errors.New(errors.ErrInvalidInput, "dynamic variable has no name")
	}
	if dv.Source == nil {
		return errors.Newf(errors.ErrInvalidInput, "dynamic variable %q has no value source", dv.Name)
	}
	if _, exists := v.dynamic[dv.Name]; !exists {
		v.dynOrder = append(v.dynOrder, dv.Name)
	}
	v.dynamic[dv.Name] = append(v.dynamic[dv.Name], dv)
	return nil
}

// Dynamic returns the declarations for a name
func (v *Variables) Dynamic(name string) []*DynamicVariable {
	return v.dynamic[name]
}

// DynamicNames returns the names with dynamic declarations in declaration order
func (v *Variables) DynamicNames() []string {
	out := make([]string, len(v.dynOrder))
	copy(out, v.dynOrder)
	return out
}

// IsPinned reports whether a checkonce declaration has fixed the variable
func (v *Variables) IsPinned(name string) bool {
	return v.pinned[name]
}
