// Package editor describes where VS Code and its channels and forks keep
// their per-user state on each supported operating system.
package editor

import "fmt"

// OS is a supported operating system family.
type OS string

const (
	Windows OS = "windows"
	Darwin  OS = "darwin"
	Linux   OS = "linux"
)

// Supported reports whether o is one of the three supported families.
func (o OS) Supported() bool {
	switch o {
	case Windows, Darwin, Linux:
		return true
	}
	return false
}

// Variant is a distinct build or channel of the editor with its own layout.
type Variant string

const (
	Standard       Variant = "standard"
	Insiders       Variant = "insiders"
	Server         Variant = "server"
	ServerInsiders Variant = "server-insiders"
	Codium         Variant = "codium"
	CodeOSS        Variant = "code-oss"
)

// Variants returns every variant in resolution priority order.
func Variants() []Variant {
	return []Variant{Standard, Insiders, Server, ServerInsiders, Codium, CodeOSS}
}

// DisplayName returns the human-readable product name.
func (v Variant) DisplayName() string {
	switch v {
	case Standard:
		return "VS Code"
	case Insiders:
		return "VS Code Insiders"
	case Server:
		return "VS Code Server"
	case ServerInsiders:
		return "VS Code Server (Insiders)"
	case Codium:
		return "VSCodium"
	case CodeOSS:
		return "Code-OSS"
	default:
		return string(v)
	}
}

// ParseVariant converts a variant name such as "insiders" into a Variant.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants() {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown editor variant %q (valid: standard, insiders, server, server-insiders, codium, code-oss)", s)
}

// Candidate is one possible installation location. Paths are always
// populated; the Exists flags are filled in at resolution time.
type Candidate struct {
	Variant        Variant
	RootPath       string // the editor's "User" directory
	DatabasePath   string // RootPath/globalStorage/state.vscdb
	ConfigPath     string // RootPath/globalStorage/storage.json
	DatabaseExists bool
	ConfigExists   bool
}

// HasFiles reports whether at least one of the required files is present.
func (c Candidate) HasFiles() bool {
	return c.DatabaseExists || c.ConfigExists
}

// Name returns the display name of the candidate's variant.
func (c Candidate) Name() string {
	return c.Variant.DisplayName()
}
