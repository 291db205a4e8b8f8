// Test Type: Integration Test
// Description: Tests for compiling descriptors into installer archives

package compiler_test

import (
	"strings"
	"testing"

	"github.com/arthur-debert/packsmith/pkg/compiler"
	"github.com/arthur-debert/packsmith/pkg/config"
	"github.com/arthur-debert/packsmith/pkg/descriptor"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/packager"
	"github.com/arthur-debert/packsmith/pkg/packs"
	"github.com/arthur-debert/packsmith/pkg/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installXML = `<installation>
  <info><appname>Widget</appname><appversion>1.0</appversion></info>
  <conditions>
    <condition type="variable" id="isUnix"><name>os</name><value>unix</value></condition>
  </conditions>
  <packs>
    <pack name="core" required="yes">
      <file src="bin/widget" targetdir="$INSTALL_PATH/bin"/>
      <file src="conf" targetdir="$INSTALL_PATH"/>
    </pack>
    <pack name="libs">
      <depends packname="core"/>
      <fileset dir="lib" targetdir="$INSTALL_PATH/lib" includes="**/*.jar" excludes="**/test-*.jar" condition="isUnix"/>
    </pack>
  </packs>
</installation>`

func project(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/src/install.xml":             installXML,
		"/src/bin/widget":              "#!/bin/sh\necho widget\n",
		"/src/conf/widget.conf":        "home=$INSTALL_PATH\n",
		"/src/conf/extra/logging.conf": "level=info\n",
		"/src/lib/a.jar":               "jar a",
		"/src/lib/nested/b.jar":        "jar b",
		"/src/lib/nested/test-b.jar":   "test jar",
		"/src/lib/README":              "not a jar",
		"/src/lib/nested/deeper/c.jar": "jar a",
	}
	testutil.WriteFiles(t, fs, files)
	require.NoError(t, fs.Chmod("/src/bin/widget", 0755))
	return fs
}

func TestBuildPacks(t *testing.T) {
	fs := project(t)
	d, err := descriptor.ParseFile(fs, "/src/install.xml")
	require.NoError(t, err)

	list, err := compiler.BuildPacks(fs, "/src", d)
	require.NoError(t, err)
	require.Len(t, list, 2)

	core := list[0]
	targets := make([]string, 0, len(core.Files))
	for _, f := range core.Files {
		targets = append(targets, f.Target)
	}
	assert.Equal(t, []string{
		"$INSTALL_PATH/bin/widget",
		"$INSTALL_PATH/conf/extra/logging.conf",
		"$INSTALL_PATH/conf/widget.conf",
	}, targets)
	assert.Equal(t, "/src/bin/widget", core.Files[0].Source)
	assert.EqualValues(t, 0755, core.Files[0].Mode)
	assert.Equal(t, int64(len("#!/bin/sh\necho widget\n")), core.Files[0].Size)

	libs := list[1]
	targets = targets[:0]
	for _, f := range libs.Files {
		targets = append(targets, f.Target)
		assert.Equal(t, "isUnix", f.Condition)
	}
	assert.Equal(t, []string{
		"$INSTALL_PATH/lib/a.jar",
		"$INSTALL_PATH/lib/nested/b.jar",
		"$INSTALL_PATH/lib/nested/deeper/c.jar",
	}, targets)
	assert.Equal(t, []string{"core"}, libs.Depends)
}

func TestBuildPacks_MissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	d, err := descriptor.Parse(strings.NewReader(`<installation><packs><pack name="a"><file src="ghost" target="x"/></pack></packs></installation>`))
	require.NoError(t, err)

	_, err = compiler.BuildPacks(fs, "/src", d)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
}

func TestBuildPacks_BadPattern(t *testing.T) {
	fs := project(t)
	d, err := descriptor.Parse(strings.NewReader(`<installation><packs><pack name="a"><fileset dir="lib" targetdir="x" includes="[unclosed"/></pack></packs></installation>`))
	require.NoError(t, err)

	_, err = compiler.BuildPacks(fs, "/src", d)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDescriptorInvalid))
}

func TestCompile(t *testing.T) {
	fs := project(t)
	cfg := config.Default()
	cfg.Output.Dir = "/dist"
	cfg.Output.Name = "widget"
	cfg.Compression.Format = "xz"

	summary, err := compiler.Compile(fs, compiler.Options{Descriptor: "/src/install.xml", Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, []string{"/dist/widget.jar"}, summary.Outputs)
	assert.Equal(t, 2, summary.Packs)
	assert.Equal(t, 6, summary.Files)
	assert.Equal(t, 1, summary.BackRefs, "c.jar has the same bytes as a.jar")

	a, err := packager.OpenArchive(fs, "/dist/widget.jar")
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	raw, err := a.Resource(packs.DescriptorEntry)
	require.NoError(t, err)
	assert.Equal(t, installXML, string(raw))

	libs, ok := a.Pack("libs")
	require.True(t, ok)
	var ref *packs.PackFile
	for _, f := range libs.Files {
		if f.IsBackReference() {
			ref = f
		}
	}
	require.NotNil(t, ref)
	assert.Equal(t, "$INSTALL_PATH/lib/nested/deeper/c.jar", ref.Target)
}

func TestCompile_InvalidDescriptor(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/install.xml",
		[]byte(`<installation><packs><pack name="a" condition="ghost"/></packs></installation>`), 0644))

	_, err := compiler.Compile(fs, compiler.Options{Descriptor: "/src/install.xml"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConditionUnknown))
}
