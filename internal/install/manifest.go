package install

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// HostName is the native messaging host identifier the extension connects
// to. It is part of the manifest contract with the browser.
const HostName = "com.sigma_eclipse.host"

// extensionID identifies the browser extension allowed to talk to the host.
// Overridable at build time with -ldflags "-X ...install.extensionID=".
var extensionID = "gfgkebdbkmoagfoeiondkfccphdlaeob"

// hostManifest is the JSON document the browser reads to find and authorize
// the native messaging host.
type hostManifest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Path           string   `json:"path"`
	Type           string   `json:"type"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// HostsDir returns the browser's NativeMessagingHosts directory for the
// current user.
func HostsDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", "Sigma", "NativeMessagingHosts"), nil
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, ".config", "Sigma", "NativeMessagingHosts"), nil
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "Sigma", "NativeMessagingHosts"), nil
	}
	return "", fmt.Errorf("native messaging is not supported on %s", runtime.GOOS)
}

// InstallHostManifest registers this binary as the extension's native
// messaging host.
func InstallHostManifest(hostBinaryPath string) (string, error) {
	if _, err := os.Stat(hostBinaryPath); err != nil {
		return "", fmt.Errorf("host binary not found at %s", hostBinaryPath)
	}
	dir, err := HostsDir()
	if err != nil {
		return "", err
	}
	return installHostManifestTo(dir, hostBinaryPath)
}

func installHostManifestTo(dir, hostBinaryPath string) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}

	manifest := hostManifest{
		Name:        HostName,
		Description: "Sigma Eclipse LLM Native Messaging Host",
		Path:        hostBinaryPath,
		Type:        "stdio",
		AllowedOrigins: []string{
			fmt.Sprintf("chrome-extension://%s/", extensionID),
		},
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(dir, HostName+".json")
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// HostManifestInstalled reports whether the manifest file is in place.
func HostManifestInstalled() bool {
	dir, err := HostsDir()
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, HostName+".json"))
	return err == nil
}
