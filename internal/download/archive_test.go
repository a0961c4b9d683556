package download

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0640))
	return path
}

func writeTarXz(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	xzw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	tw := tar.NewWriter(xzw)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}))
		_, err = tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, xzw.Close())

	path := filepath.Join(t.TempDir(), "archive.tar.xz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0640))
	return path
}

func TestExtractServerArchiveFlattensArtifacts(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"build/bin/llama-server":     "server",
		"build/bin/libggml.dylib":    "lib",
		"build/bin/ggml-metal.metal": "kernels",
		"build/README.md":            "docs",
		"build/LICENSE":              "license",
	})
	dest := t.TempDir()

	require.NoError(t, ExtractServerArchive(archive, dest))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"llama-server", "libggml.dylib", "ggml-metal.metal"}, names)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dest, "llama-server"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	}
}

func TestExtractServerArchiveTarXz(t *testing.T) {
	archive := writeTarXz(t, map[string]string{
		"llama-b1234/llama-server": "server",
		"llama-b1234/libggml.dll":  "lib",
	})
	dest := t.TempDir()

	require.NoError(t, ExtractServerArchive(archive, dest))

	assert.FileExists(t, filepath.Join(dest, "llama-server"))
	assert.FileExists(t, filepath.Join(dest, "libggml.dll"))
}

func TestExtractServerArchiveRequiresServerBinary(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"build/libggml.dylib": "lib",
	})

	err := ExtractServerArchive(archive, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server binary not found")
}

func TestExtractModelArchivePreservesLayout(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"model.gguf":         "weights",
		"extras/tokenizer":   "tok",
		"extras/config.json": "{}",
	})
	dest := t.TempDir()

	require.NoError(t, ExtractModelArchive(archive, dest))

	assert.FileExists(t, filepath.Join(dest, "model.gguf"))
	assert.FileExists(t, filepath.Join(dest, "extras", "tokenizer"))
	assert.FileExists(t, filepath.Join(dest, "extras", "config.json"))
}

func TestExtractModelArchiveSkipsEscapingEntries(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"../evil.txt": "payload",
		"model.gguf":  "weights",
	})
	parent := t.TempDir()
	dest := filepath.Join(parent, "model")

	require.NoError(t, ExtractModelArchive(archive, dest))

	assert.FileExists(t, filepath.Join(dest, "model.gguf"))
	assert.NoFileExists(t, filepath.Join(parent, "evil.txt"))
}

func TestWalkArchiveRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.rar")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0640))

	err := ExtractModelArchive(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive format")
}
