package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sigma-eclipse/llmd/internal/config"
	"github.com/sigma-eclipse/llmd/internal/platform"
	"github.com/sigma-eclipse/llmd/internal/state"
)

var (
	ErrBinaryMissing = errors.New("server binary is not installed")
	ErrModelMissing  = errors.New("model is not downloaded")
)

// AlreadyRunningError reports a start attempt while a live server is
// recorded in the shared state.
type AlreadyRunningError struct {
	PID int
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("server is already running (pid %d)", e.PID)
}

// gracePeriod is how long a terminated process group gets to exit before
// being killed. The server shuts down quickly once signalled; a longer wait
// only delays the caller's response.
var gracePeriod = 100 * time.Millisecond

// Status is the externally visible server state.
type Status struct {
	Running   bool
	PID       *int
	Port      *uint16
	CtxSize   *uint32
	GPULayers *uint32
}

// Manager starts and stops the llama-server process. The shared state
// document is the source of truth for identity, so a manager in one process
// can stop a server started by another.
type Manager struct {
	store      *state.Store
	binaryPath func() string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewManager creates a manager bound to the given state store.
func NewManager(store *state.Store) *Manager {
	return &Manager{
		store:      store,
		binaryPath: config.ServerBinaryPath,
	}
}

// Start launches the server with the given configuration and records its
// identity in the shared state. With captureOutput set, the server's stdout
// and stderr are drained into the log; otherwise they are discarded.
func (m *Manager) Start(cfg *Config, captureOutput bool) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	if pid := m.store.CheckServerRunning(); pid != nil {
		return 0, &AlreadyRunningError{PID: *pid}
	}

	binary := m.binaryPath()
	if _, err := os.Stat(binary); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrBinaryMissing, binary)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrModelMissing, cfg.ModelPath)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := exec.Command(binary, cfg.Args()...)
	cmd.SysProcAttr = platform.DetachedSysProcAttr()

	if captureOutput {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return 0, fmt.Errorf("failed to open server stdout: %w", err)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return 0, fmt.Errorf("failed to open server stderr: %w", err)
		}
		go drainOutput(stdout, "stdout")
		go drainOutput(stderr, "stderr")
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start server: %w", err)
	}
	pid := cmd.Process.Pid
	m.cmd = cmd

	// Reap the child when it exits so a crashed server does not linger as
	// a zombie under this process.
	go cmd.Wait()

	logrus.WithFields(logrus.Fields{
		"pid":        pid,
		"port":       cfg.Port,
		"ctx_size":   cfg.CtxSize,
		"gpu_layers": cfg.GPULayers,
	}).Info("server started")

	if err := m.store.UpdateServerStatus(true, &pid); err != nil {
		return pid, fmt.Errorf("failed to record server status: %w", err)
	}
	if err := m.store.UpdateServerConfig(&cfg.Port, &cfg.CtxSize, &cfg.GPULayers); err != nil {
		return pid, fmt.Errorf("failed to record server config: %w", err)
	}
	return pid, nil
}

// Stop shuts down the recorded server, if any. It is idempotent: the state
// fields are cleared even when no process was found, so a record orphaned by
// a crash cannot survive a stop request.
func (m *Manager) Stop() error {
	m.mu.Lock()
	cmd := m.cmd
	m.cmd = nil
	m.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		stopProcessGroup(cmd.Process.Pid)
		return m.clearRecord()
	}

	st := m.store.Read()
	if st.ServerPID != nil {
		stopProcessGroup(*st.ServerPID)
	}
	return m.clearRecord()
}

// Owned reports whether this manager holds the handle of a server it
// spawned itself. A record written to the shared state by another process
// does not count.
func (m *Manager) Owned() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cmd != nil
}

// Status reports the current server state, applying the liveness checks of
// the state store.
func (m *Manager) Status() *Status {
	running, pid := m.store.ServerRunning()
	st := m.store.Read()
	status := &Status{Running: running, PID: pid}
	if running {
		status.Port = st.ServerPort
		status.CtxSize = st.ServerCtxSize
		status.GPULayers = st.ServerGPULayers
	}
	return status
}

func (m *Manager) clearRecord() error {
	if err := m.store.UpdateServerStatus(false, nil); err != nil {
		return fmt.Errorf("failed to clear server status: %w", err)
	}
	if err := m.store.UpdateServerConfig(nil, nil, nil); err != nil {
		return fmt.Errorf("failed to clear server config: %w", err)
	}
	return nil
}

// stopProcessGroup terminates the whole process group: polite signal first,
// a short grace, then force. The server forks workers, so a single-pid kill
// would leave them running.
func stopProcessGroup(pid int) {
	if err := platform.TerminateGroup(pid); err != nil {
		logrus.WithError(err).WithField("pid", pid).Debug("terminate signal failed")
	}
	time.Sleep(gracePeriod)
	if state.ProcessExists(pid) {
		if err := platform.KillGroup(pid); err != nil {
			logrus.WithError(err).WithField("pid", pid).Warn("failed to kill server process group")
		}
	}
	logrus.WithField("pid", pid).Info("server stopped")
}

func drainOutput(r io.Reader, stream string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		logrus.WithField("stream", stream).Debug(scanner.Text())
	}
}
