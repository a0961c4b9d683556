package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s, err := LoadSettingsFromPath(path)
	require.NoError(t, err)
	require.NotNil(t, s)

	// Computed defaults must land within the ranges the server accepts.
	assert.NotEmpty(t, s.ActiveModel)
	assert.Equal(t, uint16(DefaultPort), s.Port)
	assert.LessOrEqual(t, s.GPULayers, uint32(41))

	// First read persists the file so later reads are stable.
	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := LoadSettingsFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestLoadSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	want := &Settings{ActiveModel: "gemma-3-4b-q4", Port: 11000, CtxSize: 9000, GPULayers: 12}
	require.NoError(t, want.SaveToPath(path))

	got, err := LoadSettingsFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSettingsFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"active_model":"m"}`), 0640))

	s, err := LoadSettingsFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "m", s.ActiveModel)
	assert.Equal(t, uint16(DefaultPort), s.Port)
	assert.Equal(t, uint32(DefaultCtxSize), s.CtxSize)
}

func TestLoadSettingsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0640))

	_, err := LoadSettingsFromPath(path)
	assert.Error(t, err)
}
