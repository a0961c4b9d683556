package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/sigma-eclipse/llmd/internal/sysinfo"
)

// Default server settings, used when host capability detection fails.
const (
	DefaultActiveModel = "model"
	DefaultPort        = 10345
	DefaultCtxSize     = 8192
	DefaultGPULayers   = 0
)

// Settings holds the persisted application settings.
type Settings struct {
	ActiveModel string `json:"active_model"`
	Port        uint16 `json:"port"`
	CtxSize     uint32 `json:"ctx_size"`
	GPULayers   uint32 `json:"gpu_layers"`
}

// DefaultSettings returns the hardcoded fallback settings.
func DefaultSettings() *Settings {
	return &Settings{
		ActiveModel: DefaultActiveModel,
		Port:        DefaultPort,
		CtxSize:     DefaultCtxSize,
		GPULayers:   DefaultGPULayers,
	}
}

// recommendedSettings builds settings from host resources, falling back to
// the hardcoded defaults if detection fails.
func recommendedSettings() *Settings {
	rec, err := sysinfo.RecommendedSettings()
	if err != nil {
		logrus.WithError(err).Warn("failed to detect host resources, using hardcoded defaults")
		return DefaultSettings()
	}
	logrus.WithFields(logrus.Fields{
		"memory_gb":  rec.MemoryGB,
		"model":      rec.Model,
		"ctx_size":   rec.CtxSize,
		"gpu_layers": rec.GPULayers,
	}).Info("creating default settings from host resources")
	return &Settings{
		ActiveModel: rec.Model,
		Port:        DefaultPort,
		CtxSize:     rec.CtxSize,
		GPULayers:   rec.GPULayers,
	}
}

// LoadSettings reads settings from the default path. If the file does not
// exist, settings computed from host resources are created and persisted.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFromPath(SettingsPath())
}

// LoadSettingsFromPath reads settings from a specific path, creating the
// file with computed defaults if absent.
func LoadSettingsFromPath(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
		s := recommendedSettings()
		if err := s.SaveToPath(path); err != nil {
			return nil, err
		}
		return s, nil
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	s.applyDefaults()
	return &s, nil
}

// applyDefaults fills zero-valued fields left by older settings files.
func (s *Settings) applyDefaults() {
	if s.ActiveModel == "" {
		s.ActiveModel = DefaultActiveModel
	}
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.CtxSize == 0 {
		s.CtxSize = DefaultCtxSize
	}
}

// Save writes settings to the default path.
func (s *Settings) Save() error {
	return s.SaveToPath(SettingsPath())
}

// SaveToPath writes settings to a specific path.
func (s *Settings) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// ActiveModel returns the configured active model name.
func ActiveModel() (string, error) {
	s, err := LoadSettings()
	if err != nil {
		return "", err
	}
	return s.ActiveModel, nil
}

// SetActiveModel updates the active model in the settings file.
func SetActiveModel(name string) error {
	s, err := LoadSettings()
	if err != nil {
		return err
	}
	s.ActiveModel = name
	return s.Save()
}
