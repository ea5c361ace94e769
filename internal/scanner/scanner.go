// Package scanner discovers editor installations on the local machine.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/vsclean/internal/editor"
)

// UnsupportedPlatformError is returned when resolution is asked to run for
// an operating system outside the supported families.
type UnsupportedPlatformError struct {
	OS string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported operating system: %s (supported: windows, darwin, linux)", e.OS)
}

// ParseOS converts a GOOS-style tag into an editor.OS.
func ParseOS(goos string) (editor.OS, error) {
	o := editor.OS(goos)
	if !o.Supported() {
		return "", &UnsupportedPlatformError{OS: goos}
	}
	return o, nil
}

// CurrentOS returns the OS family the binary is running on.
func CurrentOS() (editor.OS, error) {
	return ParseOS(runtime.GOOS)
}

// EnvironmentFromOS reads the directories catalog templates expand against
// from the process environment.
func EnvironmentFromOS() editor.Environment {
	xdg.Reload()

	home := xdg.Home
	if home == "" {
		home, _ = os.UserHomeDir()
	}

	env := editor.Environment{
		Home:        home,
		AppData:     os.Getenv("APPDATA"),
		UserProfile: os.Getenv("USERPROFILE"),
	}
	if runtime.GOOS == string(editor.Linux) {
		env.ConfigHome = xdg.ConfigHome
	}
	return env
}

// Scanner probes the filesystem for catalog candidates.
type Scanner struct {
	stat func(string) (fs.FileInfo, error)
	log  zerolog.Logger
}

// New creates a Scanner that probes with os.Stat.
func New(log zerolog.Logger) *Scanner {
	return &Scanner{stat: os.Stat, log: log}
}
