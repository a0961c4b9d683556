package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "ipc_state.json"))
}

func TestReadMissingFileReturnsZeroState(t *testing.T) {
	s := newTestStore(t)

	st := s.Read()
	require.NotNil(t, st)
	assert.False(t, st.ServerRunning)
	assert.Nil(t, st.ServerPID)
	assert.False(t, st.IsDownloading)
	assert.Nil(t, st.AppPID)
}

func TestReadCorruptFileReturnsZeroState(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0750))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{corrupt"), 0640))

	st := s.Read()
	require.NotNil(t, st)
	assert.False(t, st.ServerRunning)
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	pid := 4242
	port := uint16(10345)
	ctx := uint32(8192)
	gpu := uint32(41)
	progress := 52.5
	hb := int64(1700000000)
	appPID := 99

	want := &State{
		ServerPID:        &pid,
		ServerRunning:    true,
		ServerPort:       &port,
		ServerCtxSize:    &ctx,
		ServerGPULayers:  &gpu,
		IsDownloading:    true,
		DownloadProgress: &progress,
		AppPID:           &appPID,
		AppHeartbeat:     &hb,
	}
	require.NoError(t, s.Write(want))

	assert.Equal(t, want, s.Read())
}

func TestWriteReplacesWholeDocument(t *testing.T) {
	s := newTestStore(t)

	pid := 1234
	require.NoError(t, s.Write(&State{ServerPID: &pid, ServerRunning: true}))
	require.NoError(t, s.Write(&State{}))

	st := s.Read()
	assert.Nil(t, st.ServerPID)
	assert.False(t, st.ServerRunning)

	// No stray temp files left behind by the staged write.
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ipc_state.json", entries[0].Name())
}

func TestUpdateHelpersTouchOnlyTheirFields(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpdateAppHeartbeat(77))

	pid := 555
	require.NoError(t, s.UpdateServerStatus(true, &pid))

	progress := 10.0
	require.NoError(t, s.UpdateDownloadStatus(true, &progress))

	st := s.Read()
	require.NotNil(t, st.AppPID)
	assert.Equal(t, 77, *st.AppPID)
	require.NotNil(t, st.ServerPID)
	assert.Equal(t, 555, *st.ServerPID)
	assert.True(t, st.ServerRunning)
	assert.True(t, st.IsDownloading)
	require.NotNil(t, st.DownloadProgress)
	assert.Equal(t, 10.0, *st.DownloadProgress)
}

func TestClearAppStatus(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpdateAppHeartbeat(os.Getpid()))
	require.NoError(t, s.ClearAppStatus())

	st := s.Read()
	assert.Nil(t, st.AppPID)
	assert.Nil(t, st.AppHeartbeat)
}

func TestStateJSONFieldNames(t *testing.T) {
	// The document schema is shared with an external peer; field names are
	// part of the wire contract.
	s := newTestStore(t)
	require.NoError(t, s.Write(&State{}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{
		"server_pid", "server_running", "server_port", "server_ctx_size",
		"server_gpu_layers", "is_downloading", "download_progress",
		"app_pid", "app_heartbeat",
	} {
		assert.Contains(t, raw, key)
	}
}
