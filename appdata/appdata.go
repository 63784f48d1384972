// Package appdata finds the per-user directory an application keeps its
// configuration and data in.
package appdata

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"github.com/adrg/xdg"
)

// Dir returns the data directory of appName on the running system. On
// unix-likes it follows the XDG base directory spec, so XDG_CONFIG_HOME
// moves it. roaming only matters on Windows.
func Dir(appName string, roaming bool) string {
	switch runtime.GOOS {
	case "windows", "darwin", "plan9":
		return GetDataDir(runtime.GOOS, appName, roaming)
	}
	name := strings.ToLower(strings.TrimPrefix(appName, "."))
	if name == "" {
		return "."
	}
	return filepath.Join(xdg.ConfigHome, name)
}

// GetDataDir returns the data directory of appName for the given operating
// system:
//
//	windows  %LOCALAPPDATA%\Appname, or %APPDATA%\Appname when roaming
//	darwin   ~/Library/Application Support/Appname
//	plan9    ~/appname
//	others   ~/.config/appname
//
// An empty or "." appName gives the current directory.
func GetDataDir(goos, appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}
	appName = strings.TrimPrefix(appName, ".")
	upper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]
	lower := string(unicode.ToLower(rune(appName[0]))) + appName[1:]
	var home string
	if u, err := user.Current(); err == nil {
		home = u.HomeDir
	}
	if home == "" {
		home = os.Getenv("HOME")
	}
	switch goos {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if roaming || appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, upper)
		}
	case "darwin":
		if home != "" {
			return filepath.Join(home, "Library", "Application Support", upper)
		}
	case "plan9":
		if home != "" {
			return filepath.Join(home, lower)
		}
	default:
		if home != "" {
			return filepath.Join(home, ".config", lower)
		}
	}
	return "."
}
