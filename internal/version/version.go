// Package version provides build-time version information for the editor
// backend and the release info served on /api/version.
// Variables are injected at build time via ldflags.
package version

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return fmt.Sprintf("bl4editor %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildDate, runtime.Version())
}

// Short returns just the version string (e.g., "0.1.0" or "dev").
func Short() string {
	return Version
}

// Map returns version info as a map for JSON serialization.
func Map() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
}

// InfoFile is the Windows version resource dump shipped with desktop
// releases. Its FileVersion entry is the app version users see.
const InfoFile = "version_info.txt"

var fileVersionRE = regexp.MustCompile(`FileVersion.*?(\d+\.\d+\.\d+)`)

// AppInfo is the release information the web client shows.
type AppInfo struct {
	Version     string `json:"version"`
	Changelog   string `json:"changelog,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// ReadAppInfo returns fallback with its version replaced by the FileVersion
// found in dataDir/version_info.txt. A missing or unreadable file, or one
// without a FileVersion, leaves fallback unchanged.
func ReadAppInfo(dataDir string, fallback AppInfo) AppInfo {
	raw, err := os.ReadFile(filepath.Join(dataDir, InfoFile))
	if err != nil {
		return fallback
	}
	if m := fileVersionRE.FindSubmatch(raw); m != nil {
		fallback.Version = string(m[1])
	}
	return fallback
}
