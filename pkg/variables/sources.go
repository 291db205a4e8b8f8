package variables

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/placeholders"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ValueSource produces the raw value of a dynamic variable
type ValueSource interface {
	Resolve(v *Variables) (string, error)
	References() []string
}

// PlainValue is a literal or template value
type PlainValue struct {
	Template string
}

func (p PlainValue) Resolve(v *Variables) (string, error) {
	return v.Replace(p.Template), nil
}

func (p PlainValue) References() []string {
	return placeholders.References(p.Template)
}

// EnvironmentValue reads a process environment variable
type EnvironmentValue struct {
	Name string
}

func (e EnvironmentValue) Resolve(v *Variables) (string, error) {
	name := v.Replace(e.Name)
	val, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", name)
	}
	return val, nil
}

func (e EnvironmentValue) References() []string {
	return placeholders.References(e.Name)
}

// FileFormat is the syntax of a config file source
type FileFormat string

const (
	FormatProperties FileFormat = "properties"
	FormatTOML       FileFormat = "toml"
	FormatYAML       FileFormat = "yaml"
	FormatJSON       FileFormat = "json"
)

// ParseFileFormat maps a format name, defaulting to properties
func ParseFileFormat(s string) (FileFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "properties", "options", "ini":
		return FormatProperties, nil
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unknown config file type %q", s)
}

// ConfigFileValue reads a key from a config file. Path and Key are
// expanded first. For structured formats a dotted key walks nested tables.
type ConfigFileValue struct {
	Path   string
	Key    string
	Format FileFormat
}

func (c ConfigFileValue) Resolve(v *Variables) (string, error) {
	path := v.Replace(c.Path)
	key := v.Replace(c.Key)

	data, err := afero.ReadFile(v.FS(), path)
	if err != nil {
		return "", err
	}

	if c.Format == FormatProperties || c.Format == "" {
		props := parseProperties(data)
		val, ok := props[key]
		if !ok {
			return "", fmt.Errorf("key %s not found in %s", key, path)
		}
		return val, nil
	}

	tree := make(map[string]interface{})
	switch c.Format {
	case FormatTOML:
		err = toml.Unmarshal(data, &tree)
	case FormatYAML:
		err = yaml.Unmarshal(data, &tree)
	case FormatJSON:
		err = json.Unmarshal(data, &tree)
	default:
		err = fmt.Errorf("unsupported config file type %s", c.Format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}

	val, ok := lookupPath(tree, key)
	if !ok {
		return "", fmt.Errorf("key %s not found in %s", key, path)
	}
	return val, nil
}

func (c ConfigFileValue) References() []string {
	return append(placeholders.References(c.Path), placeholders.References(c.Key)...)
}

// parseProperties reads key=value or key: value lines. Lines starting with
// '#' or '!' are comments; "[section]" headers prefix following keys.
func parseProperties(data []byte) map[string]string {
	props := make(map[string]string)
	section := ""

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '!' || line[0] == ';' {
			continue
		}
		if line[0] == '[' && line[len(line)-1] == ']' {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		sep := strings.IndexAny(line, "=:")
		if sep < 0 {
			continue
		}
		key := strings.TrimSpace(line[:sep])
		if section != "" {
			key = section + "." + key
		}
		props[key] = strings.TrimSpace(line[sep+1:])
	}
	return props
}

func lookupPath(tree map[string]interface{}, key string) (string, bool) {
	if val, ok := tree[key]; ok {
		return scalarString(val)
	}

	parts := strings.Split(key, ".")
	var current interface{} = tree
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return "", false
		}
		current, ok = m[part]
		if !ok {
			return "", false
		}
	}
	return scalarString(current)
}

func scalarString(val interface{}) (string, bool) {
	switch t := val.(type) {
	case map[string]interface{}, []interface{}:
		return "", false
	case nil:
		return "", true
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return fmt.Sprint(t), true
	}
}
