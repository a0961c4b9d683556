package install

import (
	"github.com/sirupsen/logrus"

	"github.com/sigma-eclipse/llmd/internal/download"
	"github.com/sigma-eclipse/llmd/internal/state"
)

// beginDownload marks the shared state as downloading before the first byte
// moves, so observers see the transition even for fast transfers.
func beginDownload(store *state.Store) error {
	zero := 0.0
	return store.UpdateDownloadStatus(true, &zero)
}

// endDownload clears the downloading flag. Called on every exit path of an
// install; a flag left set would wedge the extension UI in its downloading
// state.
func endDownload(store *state.Store) {
	if err := store.UpdateDownloadStatus(false, nil); err != nil {
		logrus.WithError(err).Warn("failed to clear download status")
	}
}

// stateSink mirrors download progress into the shared state document and
// the log.
func stateSink(store *state.Store) download.Sink {
	return func(downloaded, total int64, message string) {
		var percentage *float64
		if total > 0 {
			v := float64(downloaded) / float64(total) * 100
			percentage = &v
		}
		if err := store.UpdateDownloadStatus(true, percentage); err != nil {
			logrus.WithError(err).Warn("failed to record download progress")
		}
		logrus.Info(message)
	}
}
