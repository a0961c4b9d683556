package msghost

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sigma-eclipse/llmd/internal/config"
)

// SetupLogging routes log output to stderr and the host log file. Stdout is
// off limits while the protocol runs. The log file is truncated on each
// start so it only ever holds the current session.
func SetupLogging() (io.Closer, error) {
	if err := config.EnsureDirs(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.HostLogPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		// Logging to stderr alone still works; the browser captures it.
		logrus.WithError(err).Warn("failed to open host log file")
		logrus.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	logrus.SetOutput(io.MultiWriter(os.Stderr, file))
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
