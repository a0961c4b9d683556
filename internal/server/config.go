// Package server manages the lifecycle of the local llama-server process:
// validated launch configuration, detached spawning, group shutdown, and
// status derived from the shared state document.
package server

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/sigma-eclipse/llmd/internal/config"
)

// Launch parameter bounds. A context below the minimum breaks the prompt
// templates the extension sends; layer counts above the maximum exceed what
// the supported models have to offload.
const (
	MinCtxSize   = 6000
	MaxCtxSize   = 100000
	MaxGPULayers = 41
)

var (
	ErrCtxSizeOutOfRange = errors.New("context size out of range")
	ErrTooManyGPULayers  = errors.New("too many GPU layers")
)

// Config describes one server launch.
type Config struct {
	ModelPath string
	Port      uint16
	CtxSize   uint32
	GPULayers uint32
}

// ConfigFromSettings builds a launch configuration from persisted settings,
// resolving the active model to its weights file.
func ConfigFromSettings(s *config.Settings) *Config {
	return &Config{
		ModelPath: config.ModelFilePath(s.ActiveModel),
		Port:      s.Port,
		CtxSize:   s.CtxSize,
		GPULayers: s.GPULayers,
	}
}

// Validate checks the launch parameters against the supported bounds.
func (c *Config) Validate() error {
	if c.CtxSize < MinCtxSize || c.CtxSize > MaxCtxSize {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrCtxSizeOutOfRange, c.CtxSize, MinCtxSize, MaxCtxSize)
	}
	if c.GPULayers > MaxGPULayers {
		return fmt.Errorf("%w: %d exceeds %d", ErrTooManyGPULayers, c.GPULayers, MaxGPULayers)
	}
	return nil
}

// Args returns the server command line for this configuration.
func (c *Config) Args() []string {
	return []string{
		"-m", c.ModelPath,
		"--port", strconv.Itoa(int(c.Port)),
		"--ctx-size", strconv.Itoa(int(c.CtxSize)),
		"--n-gpu-layers", strconv.Itoa(int(c.GPULayers)),
		"--flash-attn", "auto",
		"--batch-size", "2048",
		"--ubatch-size", "512",
	}
}
