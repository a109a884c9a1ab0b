package fsevents

import (
	"github.com/sirupsen/logrus"

	"github.com/streamfs/fsevents/logutil"
)

var log = newDefaultLogger()

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(logutil.NewPrefixFormatter(&logrus.TextFormatter{}, "fsevents: "))
	return l
}

// SetLogger reroutes this package's diagnostics to the given logger. Call it
// before creating any stream; the default logger writes to stderr with an
// "fsevents: " prefix.
func SetLogger(l *logrus.Logger) {
	log = l
}
