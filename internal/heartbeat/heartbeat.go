// Package heartbeat periodically refreshes the application's liveness
// record in the shared state document.
package heartbeat

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sigma-eclipse/llmd/internal/state"
)

// Period is how often the heartbeat is refreshed. It must stay well under
// the liveness timeout so a single missed beat does not mark the
// application dead.
const Period = 3 * time.Second

// Runner writes a heartbeat for the current process until stopped.
type Runner struct {
	store  *state.Store
	period time.Duration
	pid    int

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewRunner creates a runner beating for the current process.
func NewRunner(store *state.Store) *Runner {
	return &Runner{store: store, period: Period, pid: os.Getpid()}
}

// Start writes an immediate heartbeat and begins refreshing in the
// background. Starting an already started runner is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return
	}

	r.beat()
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(r.stop, r.done)
}

// Stop halts the refresh loop and clears the liveness record, so observers
// see a clean exit instead of waiting out the timeout.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop == nil {
		return
	}
	close(r.stop)
	<-r.done
	r.stop = nil

	if err := r.store.ClearAppStatus(); err != nil {
		logrus.WithError(err).Warn("failed to clear liveness record")
	}
}

func (r *Runner) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.beat()
		case <-stop:
			return
		}
	}
}

func (r *Runner) beat() {
	if err := r.store.UpdateAppHeartbeat(r.pid); err != nil {
		logrus.WithError(err).Warn("failed to write heartbeat")
	}
}
