/*
Package logging configures the process-wide structured logger.

All subsystems emit JSON-formatted events through logrus so that batch
commits, rollbacks and storage degradation are machine-readable in the
operator's log pipeline. Output goes to stderr because stdout is reserved
for the MCP stdio transport.
*/
package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu   sync.Mutex
	root *logrus.Logger
)

// Init configures the root logger with the given level ("debug", "info",
// "warn", "error"). An unknown or empty level falls back to info.
func Init(level string) *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()

	root = logrus.New()
	root.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	root.SetOutput(os.Stderr)
	root.SetLevel(parseLevel(level))
	return root
}

// Get returns the root logger, initializing it from the LOG_LEVEL
// environment variable if Init has not been called yet.
func Get() *logrus.Logger {
	mu.Lock()
	initialized := root != nil
	mu.Unlock()

	if !initialized {
		return Init(os.Getenv("LOG_LEVEL"))
	}
	return root
}

// Component returns a logger entry tagged with the subsystem name.
func Component(name string) *logrus.Entry {
	return Get().WithField("component", name)
}

func parseLevel(level string) logrus.Level {
	switch level {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
