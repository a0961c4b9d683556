package state

import (
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"
)

// HeartbeatTimeout is the maximum heartbeat age before the foreground
// application is considered dead regardless of its recorded pid.
const HeartbeatTimeout = 10 * time.Second

// nowFunc and pidExists are replaceable for tests.
var (
	nowFunc   = time.Now
	pidExists = func(pid int) bool {
		exists, err := process.PidExists(int32(pid))
		return err == nil && exists
	}
)

// ProcessExists reports whether a process with the given pid currently
// exists on this host.
func ProcessExists(pid int) bool {
	return pidExists(pid)
}

// AppRunning reports whether the foreground application is alive. All three
// conditions must hold: identity recorded, heartbeat fresh, and the pid
// present in the OS process table. Absence of any is "not running", never an
// error.
func (s *Store) AppRunning() bool {
	st := s.Read()
	if st.AppPID == nil || st.AppHeartbeat == nil {
		return false
	}
	age := nowFunc().Unix() - *st.AppHeartbeat
	if age > int64(HeartbeatTimeout.Seconds()) {
		return false
	}
	return pidExists(*st.AppPID)
}

// ServerRunning reports whether the managed server is alive, returning its
// recorded pid. A record claiming "running" for a pid the OS no longer
// knows is corrected in place: the state document is a cache, and a crash
// that bypassed graceful shutdown must not leave it lying forever.
func (s *Store) ServerRunning() (bool, *int) {
	st := s.Read()

	running := st.ServerRunning && st.ServerPID != nil && pidExists(*st.ServerPID)

	if st.ServerRunning && !running {
		logrus.WithField("pid", st.ServerPID).Debug("stale server record, self-healing")
		if err := s.UpdateServerStatus(false, nil); err != nil {
			logrus.WithError(err).Warn("failed to clear stale server status")
		}
		return false, st.ServerPID
	}

	return running, st.ServerPID
}

// CheckServerRunning returns the pid of a live server, or nil when no
// server is running. Stale records are healed as in ServerRunning.
func (s *Store) CheckServerRunning() *int {
	running, pid := s.ServerRunning()
	if !running {
		return nil
	}
	return pid
}
