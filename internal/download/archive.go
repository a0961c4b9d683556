package download

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"

	"github.com/sigma-eclipse/llmd/internal/config"
)

// archiveEntry is one regular file inside an archive. Directories are not
// surfaced; they are implied by entry paths.
type archiveEntry struct {
	name   string // slash-separated relative path as stored in the archive
	reader io.Reader
}

type entryFunc func(e archiveEntry) error

// ExtractServerArchive installs a server build: only the server executable
// and its runtime libraries are taken, flattened into destDir. Release
// archives nest binaries under build-specific directories that have no
// meaning on the target machine.
func ExtractServerArchive(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create install directory: %w", err)
	}

	foundServer := false
	err := walkArchive(archivePath, func(e archiveEntry) error {
		base := filepath.Base(e.name)
		if !serverArtifact(base) {
			return nil
		}

		mode := os.FileMode(0644)
		if isServerBinary(base) {
			foundServer = true
			mode = 0755
		}

		dest := filepath.Join(destDir, base)
		if err := writeEntry(dest, e.reader, mode); err != nil {
			return err
		}
		logrus.WithField("file", base).Debug("extracted server artifact")
		return nil
	})
	if err != nil {
		return err
	}

	if !foundServer {
		return fmt.Errorf("server binary not found in %s", filepath.Base(archivePath))
	}
	return nil
}

// ExtractModelArchive unpacks a model archive into destDir, preserving the
// archive's relative layout. Entries that would escape destDir are skipped.
func ExtractModelArchive(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	return walkArchive(archivePath, func(e archiveEntry) error {
		rel := filepath.FromSlash(e.name)
		dest := filepath.Join(destDir, rel)
		if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
			logrus.WithField("entry", e.name).Warn("skipping archive entry outside destination")
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", e.name, err)
		}
		return writeEntry(dest, e.reader, 0640)
	})
}

// serverArtifact reports whether a file belongs in the server install:
// the executable itself plus the shared libraries and GPU kernels it loads.
func serverArtifact(base string) bool {
	if isServerBinary(base) {
		return true
	}
	switch filepath.Ext(base) {
	case ".dylib", ".dll", ".metal":
		return true
	}
	return false
}

func isServerBinary(base string) bool {
	return base == config.ServerBinaryName || base == config.ServerBinaryName+".exe"
}

func writeEntry(dest string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(dest), err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to extract %s: %w", filepath.Base(dest), err)
	}
	return f.Close()
}

func walkArchive(path string, fn entryFunc) error {
	switch {
	case strings.HasSuffix(path, ".zip"):
		return walkZip(path, fn)
	case strings.HasSuffix(path, ".tar.xz"):
		return walkTarXz(path, fn)
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(path))
	}
}

func walkZip(path string, fn entryFunc) error {
	r, err := zip.OpenReader(path)
	// A reader is still returned for insecure entry names; the per-entry
	// destination check decides what to skip.
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer r.Close()

	for _, file := range r.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to open zip entry %s: %w", file.Name, err)
		}
		err = fn(archiveEntry{name: file.Name, reader: rc})
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func walkTarXz(path string, fn entryFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	xzReader, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to create xz reader: %w", err)
	}

	tarReader := tar.NewReader(xzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if err := fn(archiveEntry{name: header.Name, reader: tarReader}); err != nil {
			return err
		}
	}
}
