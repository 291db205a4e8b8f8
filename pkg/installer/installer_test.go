// Test Type: Integration Test
// Description: Tests for installing compiled archives onto a filesystem

package installer_test

import (
	"strings"
	"testing"

	"github.com/arthur-debert/packsmith/pkg/automation"
	"github.com/arthur-debert/packsmith/pkg/compiler"
	"github.com/arthur-debert/packsmith/pkg/config"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/installer"
	"github.com/arthur-debert/packsmith/pkg/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installXML = `<installation>
  <info><appname>Widget</appname><appversion>3.2</appversion></info>
  <variables>
    <variable name="greeting" value="hello"/>
  </variables>
  <dynamicvariables>
    <variable name="INSTALL_PATH" value="/opt/widget" condition="isUnix"/>
    <variable name="INSTALL_PATH" value="/win/widget" condition="isWindows"/>
    <variable name="DOC_DIR" value="${INSTALL_PATH}/doc" condition="docsSelected"/>
  </dynamicvariables>
  <conditions>
    <condition type="variable" id="isUnix"><name>os</name><value>unix</value></condition>
    <condition type="variable" id="isWindows"><name>os</name><value>windows</value></condition>
    <condition type="packselection" id="docsSelected"><name>docs</name></condition>
  </conditions>
  <packs>
    <pack name="core" required="yes">
      <file src="bin/widget" targetdir="$INSTALL_PATH/bin"/>
      <file src="widget.conf" targetdir="$INSTALL_PATH/etc" parse="true"/>
      <file src="win.bat" targetdir="$INSTALL_PATH/bin" condition="isWindows"/>
    </pack>
    <pack name="docs" preselected="yes">
      <file src="README" target="$DOC_DIR/README"/>
      <file src="bin/widget" target="$DOC_DIR/widget.sample"/>
    </pack>
    <pack name="plugins" external="true">
      <depends packname="core"/>
      <fileset dir="plugins" targetdir="$INSTALL_PATH/plugins"/>
    </pack>
    <pack name="windows-tools" condition="isWindows">
      <file src="win.bat" target="$INSTALL_PATH/tools/win.bat"/>
    </pack>
  </packs>
</installation>`

func compile(t *testing.T) (afero.Fs, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/src/install.xml":  installXML,
		"/src/bin/widget":   "#!/bin/sh\necho widget\n",
		"/src/widget.conf":  "path=$INSTALL_PATH\nsay=${greeting} from ${APP_NAME} ${APP_VER}\n",
		"/src/win.bat":      "@echo off\r\n",
		"/src/README":       "read me",
		"/src/plugins/a.so": "plugin a",
		"/src/plugins/b.so": "plugin b",
	}
	testutil.WriteFiles(t, fs, files)
	require.NoError(t, fs.Chmod("/src/bin/widget", 0755))

	cfg := config.Default()
	cfg.Output.Dir = "/dist"
	cfg.Output.Name = "widget"
	cfg.Compression.Format = "zstd"
	_, err := compiler.Compile(fs, compiler.Options{Descriptor: "/src/install.xml", Config: cfg})
	require.NoError(t, err)
	return fs, "/dist/widget.jar"
}

func session(t *testing.T) *installer.Session {
	t.Helper()
	fs, path := compile(t)
	archive, err := installer.Open(fs, path)
	require.NoError(t, err)

	s, err := installer.NewSession(afero.NewMemMapFs(), archive, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func read(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestNewSession_Seeds(t *testing.T) {
	s := session(t)

	assert.Equal(t, "Widget", s.Vars().Get(installer.VarAppName))
	assert.Equal(t, "3.2", s.Vars().Get(installer.VarAppVersion))
	assert.Equal(t, installer.DefaultLanguage, s.Vars().Get(installer.VarLanguage))
	assert.Equal(t, "/usr/local/Widget", s.Vars().Get(installer.VarInstallPath))
	assert.Equal(t, "hello", s.Vars().Get("greeting"))
	assert.Equal(t, []string{"core", "docs"}, s.SelectedPacks())
}

func TestNewSession_DefaultPathFromConfig(t *testing.T) {
	fs, path := compile(t)
	archive, err := installer.Open(fs, path)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Install.DefaultPath = "/srv/widget"
	s, err := installer.NewSession(afero.NewMemMapFs(), archive, cfg)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	assert.Equal(t, "/srv/widget", s.Vars().Get(installer.VarInstallPath))
}

func TestSelection(t *testing.T) {
	s := session(t)

	require.NoError(t, s.Select("plugins"))
	assert.Equal(t, []string{"core", "docs", "plugins"}, s.SelectedPacks())

	require.NoError(t, s.Deselect("docs"))
	assert.False(t, s.IsPackSelected("docs"))

	err := s.Deselect("core")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPackInvalid))

	err = s.Select("ghost")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPackNotFound))

	require.NoError(t, s.SelectOnly([]string{"docs"}))
	assert.Equal(t, []string{"core", "docs"}, s.SelectedPacks())
}

func TestRefresh_SeesPackSelection(t *testing.T) {
	s := session(t)
	s.Set("os", "unix")

	require.NoError(t, s.Refresh())
	assert.Equal(t, "/opt/widget/doc", s.Vars().Get("DOC_DIR"))

	ok, err := s.IsConditionTrue("isUnix+!isWindows")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInstall_Unix(t *testing.T) {
	s := session(t)
	s.Set("os", "unix")
	require.NoError(t, s.Select("plugins", "windows-tools"))

	target := afero.NewMemMapFs()
	report, err := s.Install(target)
	require.NoError(t, err)

	assert.Equal(t, "/opt/widget", report.InstallPath)
	assert.Equal(t, []string{"core", "docs", "plugins"}, report.Packs, "windows-tools condition is false")
	assert.Equal(t, []string{"/opt/widget/bin/win.bat"}, report.Skipped)

	assert.Equal(t, "#!/bin/sh\necho widget\n", read(t, target, "/opt/widget/bin/widget"))
	info, err := target.Stat("/opt/widget/bin/widget")
	require.NoError(t, err)
	assert.EqualValues(t, 0755, info.Mode().Perm())

	assert.Equal(t, "path=/opt/widget\nsay=hello from Widget 3.2\n", read(t, target, "/opt/widget/etc/widget.conf"))

	assert.Equal(t, "read me", read(t, target, "/opt/widget/doc/README"))
	assert.Equal(t, "#!/bin/sh\necho widget\n", read(t, target, "/opt/widget/doc/widget.sample"),
		"back-referenced content is extracted from the pack that stores it")

	assert.Equal(t, "plugin a", read(t, target, "/opt/widget/plugins/a.so"))
	assert.Equal(t, "plugin b", read(t, target, "/opt/widget/plugins/b.so"))

	exists, err := afero.Exists(target, "/opt/widget/tools/win.bat")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInstall_WindowsConditions(t *testing.T) {
	s := session(t)
	s.Set("os", "windows")
	require.NoError(t, s.Select("windows-tools"))

	target := afero.NewMemMapFs()
	report, err := s.Install(target)
	require.NoError(t, err)

	assert.Equal(t, []string{"core", "docs", "windows-tools"}, report.Packs)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, "@echo off\r\n", read(t, target, "/win/widget/bin/win.bat"))
	assert.Equal(t, "@echo off\r\n", read(t, target, "/win/widget/tools/win.bat"))
}

func TestInstall_MissingExternalArchive(t *testing.T) {
	fs, path := compile(t)
	require.NoError(t, fs.Remove("/dist/widget.pack-plugins.jar"))

	_, err := installer.Open(fs, path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrArchiveRead))
	assert.True(t, strings.Contains(err.Error(), "plugins"))
}

var _ automation.Target = (*installer.Session)(nil)

func TestAutomation_RoundTrip(t *testing.T) {
	s := session(t)
	s.Set("os", "unix")
	require.NoError(t, s.Select("plugins"))
	rec := automation.Capture(s, installer.VarUserHome)

	replay := session(t)
	require.NoError(t, automation.Apply(replay, rec))
	assert.Equal(t, []string{"core", "docs", "plugins"}, replay.SelectedPacks())

	report, err := replay.Install(afero.NewMemMapFs())
	require.NoError(t, err)
	assert.Equal(t, "/opt/widget", report.InstallPath)
}
