package variables_test

import (
	"testing"

	"github.com/arthur-debert/packsmith/pkg/variables"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentValue(t *testing.T) {
	t.Setenv("PACKSMITH_TEST_JDK", "/usr/lib/jvm/17")
	v := variables.New(nil)

	got, err := variables.EnvironmentValue{Name: "PACKSMITH_TEST_JDK"}.Resolve(v)
	require.NoError(t, err)
	assert.Equal(t, "/usr/lib/jvm/17", got)

	_, err = variables.EnvironmentValue{Name: "PACKSMITH_TEST_NOT_SET"}.Resolve(v)
	assert.Error(t, err)
}

func TestConfigFileValue(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/app/app.properties", []byte("# comment\nserver.port = 8080\nname: demo\n[db]\nhost=localhost\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/etc/app/app.toml", []byte("[server]\nport = 9090\nhost = \"0.0.0.0\"\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/etc/app/app.yaml", []byte("server:\n  port: 7070\n  tls: true\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/etc/app/app.json", []byte(`{"server": {"port": 6060, "ratio": 0.5}}`), 0644))

	v := variables.New(nil, variables.WithFS(fs))
	v.Set("CONF", "/etc/app")

	tests := []struct {
		name   string
		source variables.ConfigFileValue
		want   string
	}{
		{"properties_equals", variables.ConfigFileValue{Path: "${CONF}/app.properties", Key: "server.port", Format: variables.FormatProperties}, "8080"},
		{"properties_colon", variables.ConfigFileValue{Path: "${CONF}/app.properties", Key: "name"}, "demo"},
		{"properties_section", variables.ConfigFileValue{Path: "${CONF}/app.properties", Key: "db.host"}, "localhost"},
		{"toml_nested", variables.ConfigFileValue{Path: "${CONF}/app.toml", Key: "server.port", Format: variables.FormatTOML}, "9090"},
		{"toml_string", variables.ConfigFileValue{Path: "${CONF}/app.toml", Key: "server.host", Format: variables.FormatTOML}, "0.0.0.0"},
		{"yaml_nested", variables.ConfigFileValue{Path: "${CONF}/app.yaml", Key: "server.port", Format: variables.FormatYAML}, "7070"},
		{"yaml_bool", variables.ConfigFileValue{Path: "${CONF}/app.yaml", Key: "server.tls", Format: variables.FormatYAML}, "true"},
		{"json_number", variables.ConfigFileValue{Path: "${CONF}/app.json", Key: "server.port", Format: variables.FormatJSON}, "6060"},
		{"json_float", variables.ConfigFileValue{Path: "${CONF}/app.json", Key: "server.ratio", Format: variables.FormatJSON}, "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.source.Resolve(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing_key", func(t *testing.T) {
		_, err := variables.ConfigFileValue{Path: "/etc/app/app.toml", Key: "server.nope", Format: variables.FormatTOML}.Resolve(v)
		assert.Error(t, err)
	})

	t.Run("table_is_not_a_value", func(t *testing.T) {
		_, err := variables.ConfigFileValue{Path: "/etc/app/app.toml", Key: "server", Format: variables.FormatTOML}.Resolve(v)
		assert.Error(t, err)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := variables.ConfigFileValue{Path: "/nowhere.toml", Key: "x", Format: variables.FormatTOML}.Resolve(v)
		assert.Error(t, err)
	})

	t.Run("references", func(t *testing.T) {
		src := variables.ConfigFileValue{Path: "${CONF}/app.toml", Key: "${SECTION}.port"}
		assert.Equal(t, []string{"CONF", "SECTION"}, src.References())
	})
}

func TestParseFileFormat(t *testing.T) {
	for in, want := range map[string]variables.FileFormat{
		"":           variables.FormatProperties,
		"properties": variables.FormatProperties,
		"TOML":       variables.FormatTOML,
		"yml":        variables.FormatYAML,
		"json":       variables.FormatJSON,
	} {
		got, err := variables.ParseFileFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := variables.ParseFileFormat("xml")
	assert.Error(t, err)
}
