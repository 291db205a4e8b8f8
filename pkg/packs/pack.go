package packs

import (
	"io/fs"
	"strconv"

	"github.com/arthur-debert/packsmith/pkg/compression"
)

// Archive entry naming conventions
const (
	EntryPrefix        = "resources/packs/pack-"
	Pack200EntryPrefix = "resources/packs/pack200-"
	MetadataEntry      = "resources/packs.xml"
	DescriptorEntry    = "resources/install.xml"
)

// Pack is a named group of files installed together
type Pack struct {
	Name        string
	ID          string
	Description string

	// LangPackID keys the pack's translated name and description
	LangPackID string

	Required    bool
	Preselected bool
	Hidden      bool

	// Condition must hold for the pack to be installed
	Condition string

	// Depends names packs that are installed whenever this one is
	Depends []string

	// External packs are written to their own archive next to the installer
	External bool

	// Size is the uncompressed total of all files
	Size int64

	// FileSize is the number of bytes the pack occupies in its archive
	FileSize int64

	Files []*PackFile
}

// PackFile is one payload file of a pack
type PackFile struct {
	// Source is the build-machine path; it is not written to the metadata
	Source string
	Target string
	Size   int64
	Mode   fs.FileMode

	// Condition must hold for the file to be installed
	Condition string

	// Parse requests variable substitution in the file content on install
	Parse bool

	Compression compression.Format
	Offset      int64
	StoredSize  int64

	// Pack200ID is the dedicated stream id, or -1
	Pack200ID int

	// Ref points at identical bytes already stored in the same stream
	Ref *BackRef
}

// BackRef locates previously written content within the same archive stream
type BackRef struct {
	Pack   string
	Offset int64
}

// NewPackFile creates a file record with no storage assigned yet
func NewPackFile(source, target string, size int64, mode fs.FileMode) *PackFile {
	return &PackFile{
		Source:    source,
		Target:    target,
		Size:      size,
		Mode:      mode,
		Pack200ID: -1,
	}
}

// EntryName returns the archive entry holding the pack's stream
func (p *Pack) EntryName() string {
	return EntryPrefix + p.Name
}

// IsBackReference reports whether the file's bytes live elsewhere
func (f *PackFile) IsBackReference() bool {
	return f.Ref != nil
}

// IsPack200 reports whether the file has its own dedicated stream
func (f *PackFile) IsPack200() bool {
	return f.Pack200ID >= 0
}

// Pack200EntryName returns the dedicated entry for a pack200 stream id
func Pack200EntryName(id int) string {
	return Pack200EntryPrefix + strconv.Itoa(id)
}

// Names returns the pack names in order
func Names(packs []*Pack) []string {
	names := make([]string, len(packs))
	for i, p := range packs {
		names[i] = p.Name
	}
	return names
}

// Find returns the pack with the given name
func Find(packs []*Pack, name string) (*Pack, bool) {
	for _, p := range packs {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
