// Package config loads the optional vsclean settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/blackwell-systems/vsclean/internal/identity"
	"github.com/blackwell-systems/vsclean/internal/store"
)

// AppName names the config and state directories.
const AppName = "vsclean"

// FileName is the settings file inside Dir.
const FileName = "config.toml"

// MarkerEnv overrides the marker from the settings file.
const MarkerEnv = "VSCLEAN_MARKER"

// DefaultMarker is the substring removed from the state database.
const DefaultMarker = "augment"

// Dir returns the vsclean config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/vsclean if XDG_CONFIG_HOME is not set.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Path returns the default settings file path.
func Path() string {
	return filepath.Join(Dir(), FileName)
}

// Config holds the settings that shape a run. Command-line flags are
// applied on top by the caller.
type Config struct {
	Marker              string `toml:"marker"`
	Table               string `toml:"table"`
	Column              string `toml:"column"`
	MachineIDKey        string `toml:"machine_id_key"`
	DeviceIDKey         string `toml:"device_id_key"`
	IncludeEditorBackup bool   `toml:"include_editor_backup"`
	IncludeWorkspaces   bool   `toml:"include_workspaces"`
	ReadOnly            bool   `toml:"read_only"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Marker:       DefaultMarker,
		Table:        store.DefaultTable,
		Column:       store.DefaultColumn,
		MachineIDKey: identity.DefaultMachineIDKey,
		DeviceIDKey:  identity.DefaultDeviceIDKey,
	}
}

// Load reads the settings file at path over the defaults. If the file does
// not exist, the defaults are returned without an error. Unknown keys are
// rejected so typos do not go unnoticed. The MarkerEnv variable, when set,
// wins over the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if v, ok := os.LookupEnv(MarkerEnv); ok {
		cfg.Marker = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings that would make a run meaningless or
// destructive.
func (c *Config) Validate() error {
	var problems []string
	required := []struct {
		key, value string
	}{
		{"marker", c.Marker},
		{"table", c.Table},
		{"column", c.Column},
		{"machine_id_key", c.MachineIDKey},
		{"device_id_key", c.DeviceIDKey},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, r.key+" must not be empty")
		}
	}
	if c.MachineIDKey != "" && c.MachineIDKey == c.DeviceIDKey {
		problems = append(problems, "machine_id_key and device_id_key must differ")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Fields returns the identifier keys for the rewriter.
func (c *Config) Fields() identity.Fields {
	return identity.Fields{MachineID: c.MachineIDKey, DeviceID: c.DeviceIDKey}
}
