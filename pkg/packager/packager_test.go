// Test Type: Integration Test
// Description: Tests for writing pack archives and reading them back

package packager_test

import (
	"io"
	"strings"
	"testing"

	"github.com/arthur-debert/packsmith/pkg/compression"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/packager"
	"github.com/arthur-debert/packsmith/pkg/packs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, fs afero.Fs, name, content string) *packs.PackFile {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	return packs.NewPackFile(name, "$INSTALL_PATH/"+name, int64(len(content)), 0644)
}

func readBack(t *testing.T, a *packager.Archive, pack *packs.Pack, f *packs.PackFile) string {
	t.Helper()
	rc, err := a.Open(pack, f)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func build(t *testing.T, src afero.Fs, opts packager.Options, ps ...*packs.Pack) (*packager.Result, *packager.Archive) {
	t.Helper()
	p := packager.New(src, opts)
	for _, pack := range ps {
		require.NoError(t, p.AddPack(pack))
	}
	p.AddResource("resources/install.xml", []byte("<installation/>"))

	out, err := packager.NewDirOutput(src, "/out")
	require.NoError(t, err)
	res, err := p.Write(out)
	require.NoError(t, err)

	name := opts.Name
	if name == "" {
		name = packager.DefaultName
	}
	a, err := packager.OpenArchive(src, out.Path(packager.MainArchiveName(name)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return res, a
}

func TestWrite_BackReferenceDedup(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := strings.Repeat("identical bytes ", 64)
	a1 := writeSource(t, fs, "a.txt", content)
	b1 := writeSource(t, fs, "b.txt", content)
	c1 := writeSource(t, fs, "c.txt", content)
	other := writeSource(t, fs, "other.txt", "different")

	core := &packs.Pack{Name: "core", Files: []*packs.PackFile{a1, b1, other}}
	docs := &packs.Pack{Name: "docs", Files: []*packs.PackFile{c1}}

	res, archive := build(t, fs, packager.Options{Name: "setup", Format: compression.Deflate}, core, docs)

	assert.Equal(t, 2, res.BackRefs)
	assert.Equal(t, 4, res.Files)
	assert.False(t, a1.IsBackReference())
	require.True(t, b1.IsBackReference())
	assert.Equal(t, packs.BackRef{Pack: "core", Offset: a1.Offset}, *b1.Ref)
	require.True(t, c1.IsBackReference())
	assert.Equal(t, "core", c1.Ref.Pack)

	assert.Zero(t, docs.FileSize, "docs holds only a back-reference")
	assert.Equal(t, int64(len(content)), docs.Size)
	assert.Equal(t, a1.StoredSize+other.StoredSize, core.FileSize)
	assert.Equal(t, int64(2*len(content)+len("different")), core.Size)

	require.Len(t, archive.Packs, 2)
	readDocs, ok := archive.Pack("docs")
	require.True(t, ok)
	assert.Equal(t, content, readBack(t, archive, readDocs, readDocs.Files[0]))

	readCore, _ := archive.Pack("core")
	assert.Equal(t, content, readBack(t, archive, readCore, readCore.Files[1]))
	assert.Equal(t, "different", readBack(t, archive, readCore, readCore.Files[2]))
}

func TestWrite_EveryFormat(t *testing.T) {
	for _, format := range compression.Formats() {
		t.Run(string(format), func(t *testing.T) {
			fs := afero.NewMemMapFs()
			f1 := writeSource(t, fs, "one.txt", strings.Repeat("one ", 100))
			f2 := writeSource(t, fs, "two.txt", "two")
			empty := writeSource(t, fs, "empty.txt", "")
			pack := &packs.Pack{Name: "main", Files: []*packs.PackFile{f1, f2, empty}}

			_, archive := build(t, fs, packager.Options{Format: format, Level: compression.DefaultLevel}, pack)

			got, _ := archive.Pack("main")
			assert.Equal(t, strings.Repeat("one ", 100), readBack(t, archive, got, got.Files[0]))
			assert.Equal(t, "two", readBack(t, archive, got, got.Files[1]))
			assert.Equal(t, "", readBack(t, archive, got, got.Files[2]))
			assert.Equal(t, format, got.Files[0].Compression)
			assert.Equal(t, got.Files[0].Offset+got.Files[0].StoredSize, got.Files[1].Offset)
		})
	}
}

func TestWrite_SizeMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := writeSource(t, fs, "grown.txt", "short")
	f.Size = 3

	p := packager.New(fs, packager.Options{})
	require.NoError(t, p.AddPack(&packs.Pack{Name: "core", Files: []*packs.PackFile{f}}))
	out, err := packager.NewDirOutput(fs, "/out")
	require.NoError(t, err)

	_, err = p.Write(out)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSizeMismatch))
	details := errors.GetErrorDetails(err)
	assert.Equal(t, int64(3), details["expected"])
	assert.Equal(t, int64(5), details["copied"])
}

func TestWrite_MissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := packager.New(fs, packager.Options{})
	require.NoError(t, p.AddPack(&packs.Pack{Name: "core", Files: []*packs.PackFile{
		packs.NewPackFile("/nope", "x", 1, 0644),
	}}))
	out, err := packager.NewDirOutput(fs, "/out")
	require.NoError(t, err)

	_, err = p.Write(out)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileAccess))
}

func TestWrite_Pack200Deferred(t *testing.T) {
	fs := afero.NewMemMapFs()
	lib := writeSource(t, fs, "lib/app.jar", strings.Repeat("classfile", 50))
	readme := writeSource(t, fs, "README", "readme")
	pack := &packs.Pack{Name: "core", Files: []*packs.PackFile{lib, readme}}

	res, archive := build(t, fs, packager.Options{Format: compression.Gzip, Pack200: true}, pack)

	assert.Equal(t, 1, res.Pack200)
	assert.Equal(t, 0, lib.Pack200ID)
	assert.Equal(t, compression.PackedStream, lib.Compression)
	assert.False(t, readme.IsPack200())
	assert.Zero(t, readme.Offset, "deferred file must not occupy the pack stream")

	got, _ := archive.Pack("core")
	assert.Equal(t, strings.Repeat("classfile", 50), readBack(t, archive, got, got.Files[0]))
	assert.Equal(t, "readme", readBack(t, archive, got, got.Files[1]))
}

func TestWrite_Pack200Disabled(t *testing.T) {
	fs := afero.NewMemMapFs()
	lib := writeSource(t, fs, "app.jar", "jar bytes")
	res, _ := build(t, fs, packager.Options{}, &packs.Pack{Name: "core", Files: []*packs.PackFile{lib}})
	assert.Zero(t, res.Pack200)
	assert.False(t, lib.IsPack200())
}

func TestWrite_ExternalPack(t *testing.T) {
	fs := afero.NewMemMapFs()
	shared := strings.Repeat("shared ", 20)
	mainFile := writeSource(t, fs, "main.txt", shared)
	extFile := writeSource(t, fs, "ext.txt", shared)

	core := &packs.Pack{Name: "core", Files: []*packs.PackFile{mainFile}}
	extra := &packs.Pack{Name: "extra", External: true, Files: []*packs.PackFile{extFile}}

	res, archive := build(t, fs, packager.Options{Name: "app", Format: compression.Zstd}, core, extra)

	assert.Equal(t, []string{"app.jar", "app.pack-extra.jar"}, res.Outputs)
	exists, err := afero.Exists(fs, "/out/app.pack-extra.jar")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.False(t, extFile.IsBackReference(), "back-references never cross archives")
	got, _ := archive.Pack("extra")
	assert.True(t, got.External)
	assert.Equal(t, shared, readBack(t, archive, got, got.Files[0]))
}

func TestWrite_Resources(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, archive := build(t, fs, packager.Options{}, &packs.Pack{Name: "empty"})

	data, err := archive.Resource("resources/install.xml")
	require.NoError(t, err)
	assert.Equal(t, "<installation/>", string(data))

	_, err = archive.Resource("resources/missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestAddPack_Rejects(t *testing.T) {
	p := packager.New(afero.NewMemMapFs(), packager.Options{})
	require.NoError(t, p.AddPack(&packs.Pack{Name: "a"}))
	assert.True(t, errors.IsErrorCode(p.AddPack(&packs.Pack{Name: "a"}), errors.ErrPackInvalid))
	assert.True(t, errors.IsErrorCode(p.AddPack(&packs.Pack{}), errors.ErrPackInvalid))
}

func TestWrite_InvalidDependencies(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := packager.New(fs, packager.Options{})
	require.NoError(t, p.AddPack(&packs.Pack{Name: "a", Depends: []string{"missing"}}))
	out, err := packager.NewDirOutput(fs, "/out")
	require.NoError(t, err)

	_, err = p.Write(out)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPackNotFound))
}

func TestWrite_RejectsPathLikePackName(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := packager.New(fs, packager.Options{Name: "app"})
	require.NoError(t, p.AddPack(&packs.Pack{Name: "../escape", External: true}))
	out, err := packager.NewDirOutput(fs, "/out/dist")
	require.NoError(t, err)

	_, err = p.Write(out)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPackInvalid))

	exists, err := afero.Exists(fs, "/out/app.pack-../escape.jar")
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = afero.Exists(fs, "/out/dist/app.jar")
	require.NoError(t, err)
	assert.False(t, exists, "nothing is written for an invalid pack set")
}

// openCounter counts how often each path is opened for reading
type openCounter struct {
	afero.Fs
	opens map[string]int
}

func (c *openCounter) Open(name string) (afero.File, error) {
	c.opens[name]++
	return c.Fs.Open(name)
}

func TestWrite_ReadsSourcesOnce(t *testing.T) {
	fs := &openCounter{Fs: afero.NewMemMapFs(), opens: make(map[string]int)}
	first := writeSource(t, fs, "a.txt", "0123456789abcdef")
	dup := writeSource(t, fs, "b.txt", "0123456789abcdef")
	sameSize := writeSource(t, fs, "c.txt", "fedcba9876543210")
	other := writeSource(t, fs, "d.txt", "short")

	core := &packs.Pack{Name: "core", Files: []*packs.PackFile{first, dup, sameSize, other}}
	res, archive := build(t, fs, packager.Options{Format: compression.Deflate}, core)

	assert.Equal(t, 1, res.BackRefs)
	assert.Equal(t, 1, fs.opens["a.txt"], "first copy is hashed while written")
	assert.Equal(t, 1, fs.opens["b.txt"], "duplicate is only hashed")
	assert.Equal(t, 2, fs.opens["c.txt"], "size collision is hashed before writing")
	assert.Equal(t, 1, fs.opens["d.txt"])

	assert.Equal(t, "0123456789abcdef", readBack(t, archive, core, dup))
	assert.Equal(t, "fedcba9876543210", readBack(t, archive, core, sameSize))
}
