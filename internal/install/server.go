// Package install puts the pieces on disk: the managed server build, model
// weights from the catalog, and the browser's native messaging manifest.
package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/download"
	"github.com/sigma-eclipse/llmd/internal/state"
	"github.com/sigma-eclipse/llmd/internal/versions"
)

// EnsureServer installs or updates the managed server binary to the version
// pinned in the release manifest. It is a no-op when the installed version
// already matches.
func EnsureServer(ctx context.Context, store *state.Store) (string, error) {
	manifest, err := versions.Load()
	if err != nil {
		return "", err
	}
	build, err := manifest.ServerBuild()
	if err != nil {
		return "", err
	}
	return installServer(ctx, store, build, manifest.LlamaCpp.Version)
}

// NeedsServerUpdate reports whether the installed server version differs
// from the manifest. A missing or unreadable version marker counts as
// needing an update.
func NeedsServerUpdate() (bool, error) {
	manifest, err := versions.Load()
	if err != nil {
		return false, err
	}
	installed, err := InstalledServerVersion()
	if err != nil {
		return true, nil
	}
	return installed != manifest.LlamaCpp.Version, nil
}

// InstalledServerVersion reads the version marker written by the last
// successful install.
func InstalledServerVersion() (string, error) {
	data, err := os.ReadFile(config.VersionMarkerPath())
	if err != nil {
		return "", fmt.Errorf("failed to read version marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func installServer(ctx context.Context, store *state.Store, build *versions.Build, version string) (string, error) {
	binaryPath := config.ServerBinaryPath()
	binaryExists := false
	if _, err := os.Stat(binaryPath); err == nil {
		binaryExists = true
		if installed, err := InstalledServerVersion(); err == nil && installed == version {
			return fmt.Sprintf("server version %s is already installed", version), nil
		}
	}

	if binaryExists {
		installed, err := InstalledServerVersion()
		if err != nil {
			installed = "unknown"
		}
		logrus.WithFields(logrus.Fields{
			"from": installed,
			"to":   version,
		}).Info("updating server")
		cleanupOldServerFiles(config.BinDir())
	}

	if err := config.EnsureDirs(); err != nil {
		return "", fmt.Errorf("failed to create data directories: %w", err)
	}

	archivePath := filepath.Join(config.DataDir(), "llama-server"+archiveExt(build.URL))
	logrus.WithField("url", build.URL).Info("downloading server build")

	if err := beginDownload(store); err != nil {
		return "", err
	}
	if err := download.Fetch(ctx, build.URL, archivePath, build.SHA256, stateSink(store)); err != nil {
		endDownload(store)
		return "", fmt.Errorf("server download failed: %w", err)
	}

	if err := download.ExtractServerArchive(archivePath, config.BinDir()); err != nil {
		endDownload(store)
		return "", err
	}
	os.Remove(archivePath)

	if err := os.WriteFile(config.VersionMarkerPath(), []byte(version), 0640); err != nil {
		endDownload(store)
		return "", fmt.Errorf("failed to write version marker: %w", err)
	}
	endDownload(store)

	return fmt.Sprintf("installed server version %s to %s", version, binaryPath), nil
}

// cleanupOldServerFiles removes the previous install's binary and runtime
// libraries so an update cannot mix files from two versions. Failures are
// logged and skipped; extraction will overwrite what remains.
func cleanupOldServerFiles(binDir string) {
	for _, name := range []string{config.ServerBinaryName, config.ServerBinaryName + ".exe"} {
		path := filepath.Join(binDir, name)
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				logrus.WithError(err).WithField("file", name).Warn("failed to remove old server binary")
			}
		}
	}

	entries, err := os.ReadDir(binDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		switch filepath.Ext(entry.Name()) {
		case ".dylib", ".dll", ".metal":
			if err := os.Remove(filepath.Join(binDir, entry.Name())); err != nil {
				logrus.WithError(err).WithField("file", entry.Name()).Warn("failed to remove old server library")
			}
		}
	}
}

func archiveExt(url string) string {
	if strings.HasSuffix(url, ".tar.xz") {
		return ".tar.xz"
	}
	return filepath.Ext(url)
}
