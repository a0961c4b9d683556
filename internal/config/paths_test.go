package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LLMD_DATA_DIR", dir)

	assert.Equal(t, dir, DataDir())
	assert.Equal(t, filepath.Join(dir, "bin"), BinDir())
	assert.Equal(t, filepath.Join(dir, "models"), ModelsDir())
	assert.Equal(t, filepath.Join(dir, "ipc_state.json"), StatePath())
	assert.Equal(t, filepath.Join(dir, "bin", "llama-version.txt"), VersionMarkerPath())
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LLMD_DATA_DIR", filepath.Join(dir, "nested", "app"))

	require.NoError(t, EnsureDirs())

	for _, p := range []string{DataDir(), BinDir(), ModelsDir()} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestModelFilePathPrefersGGUF(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LLMD_DATA_DIR", dir)

	modelDir := ModelDir("test-model")
	require.NoError(t, os.MkdirAll(modelDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "readme.txt"), []byte("x"), 0640))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "weights.gguf"), []byte("x"), 0640))

	assert.Equal(t, filepath.Join(modelDir, "weights.gguf"), ModelFilePath("test-model"))
	assert.True(t, IsModelDownloaded("test-model"))
}

func TestModelFilePathFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LLMD_DATA_DIR", dir)

	// No model directory at all: fall back to the conventional name.
	assert.Equal(t, filepath.Join(ModelDir("absent"), "model.gguf"), ModelFilePath("absent"))
	assert.False(t, IsModelDownloaded("absent"))
}
