// dlog is a thin wrapper around logrus that gives the rest of the
// program a single file-backed logger.
package dlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Global logger instance. Discards everything until Initialize is
// called so library code can log unconditionally.
var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.Out = io.Discard
}

// Initialize points the global logger at logFile. Terminal output stays
// clean; everything chatty goes to the log file.
func Initialize(logFile string) {
	l := logrus.New()

	// #nosec G304
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		// No log file is not worth dying over; keep discarding.
		return
	}

	l.Out = file
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	Logger = l
}
