// Package config provides path resolution and settings management for llmd.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// appDirName is the per-user data directory shared with the browser
	// extension peer and the legacy installer. Do not rename.
	appDirName = "com.sigma-eclipse.llm"

	// ServerBinaryName is the managed inference-server executable.
	ServerBinaryName = "llama-server"
)

// DataDir returns the platform-specific application data directory.
// LLMD_DATA_DIR overrides the default location.
func DataDir() string {
	if override := os.Getenv("LLMD_DATA_DIR"); override != "" {
		return override
	}

	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", appDirName)
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appDirName)
	default: // linux and others
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, appDirName)
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appDirName)
	}
}

// BinDir returns the directory holding the managed server binary and its
// shared libraries.
func BinDir() string {
	return filepath.Join(DataDir(), "bin")
}

// ModelsDir returns the root directory for downloaded models.
func ModelsDir() string {
	return filepath.Join(DataDir(), "models")
}

// ModelDir returns the directory for a specific model.
func ModelDir(name string) string {
	return filepath.Join(ModelsDir(), name)
}

// ServerBinaryPath returns the full path to the managed server binary.
func ServerBinaryPath() string {
	name := ServerBinaryName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(BinDir(), name)
}

// ModelFilePath returns the path to the model weights file for the given
// model. The first .gguf file found in the model directory wins; if none is
// present the conventional default name is returned.
func ModelFilePath(name string) string {
	dir := ModelDir(name)
	if entries, err := os.ReadDir(dir); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".gguf" {
				return filepath.Join(dir, entry.Name())
			}
		}
	}
	return filepath.Join(dir, "model.gguf")
}

// IsModelDownloaded reports whether the given model has weights on disk.
func IsModelDownloaded(name string) bool {
	entries, err := os.ReadDir(ModelDir(name))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".gguf" {
			return true
		}
	}
	return false
}

// StatePath returns the path to the shared IPC state document.
func StatePath() string {
	return filepath.Join(DataDir(), "ipc_state.json")
}

// SettingsPath returns the path to the settings document.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// VersionMarkerPath returns the path to the installed-server version marker.
func VersionMarkerPath() string {
	return filepath.Join(BinDir(), "llama-version.txt")
}

// HostLogPath returns the path to the native messaging host log file.
func HostLogPath() string {
	return filepath.Join(DataDir(), "native-host.log")
}

// EnsureDirs creates the data, bin and models directories if missing.
func EnsureDirs() error {
	for _, dir := range []string{DataDir(), BinDir(), ModelsDir()} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
	}
	return nil
}
