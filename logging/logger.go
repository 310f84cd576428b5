package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Unknown levels fall back to info.
func New(level string) *logrus.Logger {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}

	return &logrus.Logger{
		Out:       os.Stdout,
		Formatter: &logrus.TextFormatter{DisableLevelTruncation: true, FullTimestamp: true},
		Hooks:     make(logrus.LevelHooks),
		Level:     lvl,
	}
}

// Discard returns a logger that writes nowhere, for tests.
func Discard() *logrus.Logger {
	l := New("panic")
	l.SetOutput(io.Discard)
	return l
}
