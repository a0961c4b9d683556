package msghost

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/platform"
	"github.com/sigma-eclipse/llmd/internal/server"
	"github.com/sigma-eclipse/llmd/internal/state"
)

// pushState is the snapshot compared between messages to decide whether the
// extension needs a status push.
type pushState struct {
	AppRunning       bool
	ModelRunning     bool
	IsDownloading    bool
	DownloadProgress *float64
}

func (p *pushState) equal(o *pushState) bool {
	if p.AppRunning != o.AppRunning || p.ModelRunning != o.ModelRunning || p.IsDownloading != o.IsDownloading {
		return false
	}
	if (p.DownloadProgress == nil) != (o.DownloadProgress == nil) {
		return false
	}
	return p.DownloadProgress == nil || *p.DownloadProgress == *o.DownloadProgress
}

// Host serves the native messaging protocol on a stream pair, normally
// stdin/stdout. Stdout carries protocol frames only; all logging goes
// elsewhere.
type Host struct {
	in      io.Reader
	out     io.Writer
	store   *state.Store
	manager *server.Manager

	launchApp    func() error
	loadSettings func() (*config.Settings, error)

	cached *pushState
}

// New creates a host bound to the given streams and state store.
func New(in io.Reader, out io.Writer, store *state.Store, manager *server.Manager) *Host {
	return &Host{
		in:           in,
		out:          out,
		store:        store,
		manager:      manager,
		launchApp:    platform.LaunchApp,
		loadSettings: config.LoadSettings,
	}
}

// Run processes messages until the extension disconnects or the stream
// breaks. Status changes are evaluated after each response; there is no
// timer, so a change becomes visible on the next message exchange.
func (h *Host) Run() error {
	logrus.Info("host started")
	defer logrus.Info("host stopped")

	for {
		msg, err := ReadMessage(h.in)
		if err != nil {
			if err == io.EOF {
				logrus.Info("extension disconnected")
				return nil
			}
			return err
		}

		resp := h.dispatch(msg)
		if err := WriteFrame(h.out, resp); err != nil {
			return err
		}
		h.checkAndPushStatus()
	}
}

func (h *Host) dispatch(msg *Message) *Response {
	var (
		data any
		err  error
	)
	switch msg.Command {
	case "start_server":
		data, err = h.handleStartServer()
	case "stop_server":
		data, err = h.handleStopServer()
	case "get_server_status":
		data, err = h.handleGetServerStatus()
	// The extension sends this one in camelCase; it is part of the wire
	// contract.
	case "isDownloading":
		data, err = h.handleIsDownloading()
	case "get_app_status":
		data, err = h.handleGetAppStatus()
	case "launch_app":
		data, err = h.handleLaunchApp()
	default:
		err = fmt.Errorf("Unknown command: %s", msg.Command)
	}

	if err != nil {
		logrus.WithField("command", msg.Command).WithError(err).Error("command failed")
		return &Response{ID: msg.ID, Success: false, Error: err.Error()}
	}
	return &Response{ID: msg.ID, Success: true, Data: data}
}

// checkAndPushStatus sends a status_update frame when the observed status
// differs from the last pushed one. The first evaluation always pushes so
// the extension gets a baseline.
func (h *Host) checkAndPushStatus() {
	st := h.store.Read()
	running, _ := h.store.ServerRunning()
	current := &pushState{
		AppRunning:       h.store.AppRunning(),
		ModelRunning:     running,
		IsDownloading:    st.IsDownloading,
		DownloadProgress: st.DownloadProgress,
	}

	if h.cached != nil && h.cached.equal(current) {
		return
	}

	push := &Push{
		Type: "status_update",
		Data: map[string]any{
			"appRunning":       current.AppRunning,
			"modelRunning":     current.ModelRunning,
			"isDownloading":    current.IsDownloading,
			"downloadProgress": current.DownloadProgress,
		},
	}
	if err := WriteFrame(h.out, push); err != nil {
		logrus.WithError(err).Error("failed to send status push")
		return
	}
	h.cached = current
}

func (h *Host) handleStartServer() (any, error) {
	settings, err := h.loadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := server.ConfigFromSettings(settings)
	pid, err := h.manager.Start(cfg, false)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"port": cfg.Port, "pid": pid}).Info("server started")
	return map[string]any{
		"message": fmt.Sprintf("Server started on port %d (PID: %d)", cfg.Port, pid),
		"pid":     pid,
		"port":    cfg.Port,
	}, nil
}

func (h *Host) handleStopServer() (any, error) {
	pid := h.store.CheckServerRunning()
	if pid == nil {
		return nil, errors.New("Server is not running")
	}
	if err := h.manager.Stop(); err != nil {
		return nil, err
	}
	logrus.WithField("pid", *pid).Info("server stopped")
	return map[string]any{
		"message": fmt.Sprintf("Server stopped (PID: %d)", *pid),
	}, nil
}

func (h *Host) handleGetServerStatus() (any, error) {
	running, pid := h.store.ServerRunning()
	st := h.store.Read()

	message := "Server is not running"
	if running {
		message = "Server is running"
	} else {
		pid = nil
	}

	return map[string]any{
		"is_running": running,
		"pid":        pid,
		"port":       st.ServerPort,
		"ctx_size":   st.ServerCtxSize,
		"gpu_layers": st.ServerGPULayers,
		"message":    message,
	}, nil
}

func (h *Host) handleIsDownloading() (any, error) {
	st := h.store.Read()
	return map[string]any{
		"is_downloading": st.IsDownloading,
		"progress":       st.DownloadProgress,
	}, nil
}

func (h *Host) handleGetAppStatus() (any, error) {
	running := h.store.AppRunning()
	st := h.store.Read()

	message := "App is not running"
	if running {
		message = "App is running"
	}

	return map[string]any{
		"is_running":     running,
		"pid":            st.AppPID,
		"last_heartbeat": st.AppHeartbeat,
		"message":        message,
	}, nil
}

func (h *Host) handleLaunchApp() (any, error) {
	if h.store.AppRunning() {
		return map[string]any{
			"launched": false,
			"message":  "App is already running",
		}, nil
	}

	if err := h.launchApp(); err != nil {
		return nil, err
	}
	logrus.Info("app launched")
	return map[string]any{
		"launched": true,
		"message":  "App launched successfully",
	}, nil
}
