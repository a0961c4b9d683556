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

// ModelInfo describes one catalog model and its local install state.
type ModelInfo struct {
	Name       string
	Version    string
	Downloaded bool
	Path       string
}

// DownloadModel fetches a model from the catalog by name and unpacks it into
// the model directory.
func DownloadModel(ctx context.Context, store *state.Store, name string) (string, error) {
	manifest, err := versions.Load()
	if err != nil {
		return "", err
	}
	entry, err := manifest.Model(name)
	if err != nil {
		return "", err
	}
	return downloadModel(ctx, store, name, entry)
}

func downloadModel(ctx context.Context, store *state.Store, name string, entry *versions.Model) (string, error) {
	modelDir := config.ModelDir(name)
	if err := os.MkdirAll(modelDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"model": name,
		"url":   entry.URL,
	}).Info("downloading model")

	isArchive := archiveExt(entry.URL) == ".zip" || archiveExt(entry.URL) == ".tar.xz"
	dest := filepath.Join(modelDir, entry.Filename)
	if isArchive {
		dest = filepath.Join(modelDir, "model"+archiveExt(entry.URL))
	}

	if err := beginDownload(store); err != nil {
		return "", err
	}
	if err := download.Fetch(ctx, entry.URL, dest, entry.SHA256, stateSink(store)); err != nil {
		endDownload(store)
		return "", fmt.Errorf("model %q download failed: %w", name, err)
	}

	if isArchive {
		if err := download.ExtractModelArchive(dest, modelDir); err != nil {
			endDownload(store)
			return "", err
		}
		os.Remove(dest)
	}
	endDownload(store)

	return fmt.Sprintf("model %q installed to %s", name, modelDir), nil
}

// ListModels returns every catalog model with its local state.
func ListModels() ([]ModelInfo, error) {
	manifest, err := versions.Load()
	if err != nil {
		return nil, err
	}

	infos := make([]ModelInfo, 0, len(manifest.Models))
	for _, name := range manifest.ModelNames() {
		entry := manifest.Models[name]
		info := ModelInfo{Name: name, Version: entry.Version}
		if config.IsModelDownloaded(name) {
			info.Downloaded = true
			info.Path = config.ModelDir(name)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// DeleteModel removes a downloaded model from disk.
func DeleteModel(name string) error {
	dir := config.ModelDir(name)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("model %q is not downloaded", name)
		}
		return err
	}
	// Refuse to remove anything outside the models root.
	if !strings.HasPrefix(dir, filepath.Clean(config.ModelsDir())+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete %s", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete model %q: %w", name, err)
	}
	return nil
}
