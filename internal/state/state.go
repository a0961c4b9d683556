// Package state implements the shared IPC state store used to coordinate
// the foreground application and the native messaging host. The store is a
// single JSON document on disk; every mutation is a read-modify-write of the
// whole document, so concurrent writers race benignly (last writer wins on
// an internally consistent snapshot) and readers never see partial updates.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// State is the shared coordination document. All fields describe the last
// known world; the liveness checks in this package decide how much of it to
// believe.
type State struct {
	// Server process identity and last-applied configuration.
	ServerPID       *int    `json:"server_pid"`
	ServerRunning   bool    `json:"server_running"`
	ServerPort      *uint16 `json:"server_port"`
	ServerCtxSize   *uint32 `json:"server_ctx_size"`
	ServerGPULayers *uint32 `json:"server_gpu_layers"`

	// Download engine status.
	IsDownloading    bool     `json:"is_downloading"`
	DownloadProgress *float64 `json:"download_progress"`

	// Foreground application identity and heartbeat (unix seconds).
	AppPID       *int   `json:"app_pid"`
	AppHeartbeat *int64 `json:"app_heartbeat"`
}

// Store reads and writes the shared state document at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store bound to the given state file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Read returns the current state. It never fails: a missing or unparsable
// file yields the zero state, since the document is a cache of last known
// facts rather than a ledger.
func (s *Store) Read() *State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &State{}
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return &State{}
	}
	return &st
}

// Write replaces the state document. The new document is staged in a
// temporary file and renamed into place so a concurrent Read never observes
// a partially written document.
func (s *Store) Write(st *State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ipc_state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// UpdateServerStatus records whether the server is running and under which
// pid.
func (s *Store) UpdateServerStatus(running bool, pid *int) error {
	st := s.Read()
	st.ServerRunning = running
	st.ServerPID = pid
	return s.Write(st)
}

// UpdateServerConfig mirrors the applied server configuration into the
// state document for observers. Pass nils to clear.
func (s *Store) UpdateServerConfig(port *uint16, ctxSize, gpuLayers *uint32) error {
	st := s.Read()
	st.ServerPort = port
	st.ServerCtxSize = ctxSize
	st.ServerGPULayers = gpuLayers
	return s.Write(st)
}

// UpdateDownloadStatus records download progress for other processes.
func (s *Store) UpdateDownloadStatus(downloading bool, progress *float64) error {
	st := s.Read()
	st.IsDownloading = downloading
	st.DownloadProgress = progress
	return s.Write(st)
}

// UpdateAppHeartbeat refreshes the foreground application's identity and
// heartbeat timestamp.
func (s *Store) UpdateAppHeartbeat(pid int) error {
	st := s.Read()
	now := nowFunc().Unix()
	st.AppPID = &pid
	st.AppHeartbeat = &now
	return s.Write(st)
}

// ClearAppStatus removes the foreground application's identity fields.
// Called on graceful application exit.
func (s *Store) ClearAppStatus() error {
	st := s.Read()
	st.AppPID = nil
	st.AppHeartbeat = nil
	return s.Write(st)
}
