package editor

import "path/filepath"

// Relative locations of the two files under an installation root.
const (
	GlobalStorageDir = "globalStorage"
	DatabaseFile     = "state.vscdb"
	ConfigFile       = "storage.json"
)

// Base selects which environment-dependent directory a template hangs off.
type Base int

const (
	// BaseAppData is the per-user application data directory: %APPDATA% on
	// Windows, ~/Library/Application Support on macOS, $XDG_CONFIG_HOME on Linux.
	BaseAppData Base = iota
	// BaseHome is the user's home or profile directory.
	BaseHome
)

// Template is the OS-independent description of one variant's layout.
type Template struct {
	Variant  Variant
	Base     Base
	Segments []string
}

// Environment carries the directories templates are expanded against.
// Empty fields fall back to locations derived from Home.
type Environment struct {
	Home        string
	AppData     string // Windows %APPDATA%
	UserProfile string // Windows %USERPROFILE%
	ConfigHome  string // Linux $XDG_CONFIG_HOME
}

// Catalog returns the templates for goos in priority order, or nil if goos
// is not supported. The layout is identical across supported systems; only
// the base directories differ.
func Catalog(goos OS) []Template {
	if !goos.Supported() {
		return nil
	}
	return []Template{
		{Variant: Standard, Base: BaseAppData, Segments: []string{"Code", "User"}},
		{Variant: Insiders, Base: BaseAppData, Segments: []string{"Code - Insiders", "User"}},
		{Variant: Server, Base: BaseHome, Segments: []string{".vscode-server", "data", "User"}},
		{Variant: ServerInsiders, Base: BaseHome, Segments: []string{".vscode-server-insiders", "data", "User"}},
		{Variant: Codium, Base: BaseAppData, Segments: []string{"VSCodium", "User"}},
		{Variant: CodeOSS, Base: BaseAppData, Segments: []string{"Code - OSS", "User"}},
	}
}

// Root returns the base directory for b on goos.
func (e Environment) Root(goos OS, b Base) string {
	switch b {
	case BaseHome:
		if goos == Windows && e.UserProfile != "" {
			return e.UserProfile
		}
		return e.Home
	default:
		switch goos {
		case Windows:
			if e.AppData != "" {
				return e.AppData
			}
			return filepath.Join(e.Home, "AppData", "Roaming")
		case Darwin:
			return filepath.Join(e.Home, "Library", "Application Support")
		default:
			if e.ConfigHome != "" {
				return e.ConfigHome
			}
			return filepath.Join(e.Home, ".config")
		}
	}
}

// Expand builds the candidate for t. Existence flags are left false.
func (t Template) Expand(goos OS, env Environment) Candidate {
	parts := append([]string{env.Root(goos, t.Base)}, t.Segments...)
	root := filepath.Join(parts...)
	storage := filepath.Join(root, GlobalStorageDir)
	return Candidate{
		Variant:      t.Variant,
		RootPath:     root,
		DatabasePath: filepath.Join(storage, DatabaseFile),
		ConfigPath:   filepath.Join(storage, ConfigFile),
	}
}
