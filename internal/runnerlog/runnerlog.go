// Package runnerlog centralises logrus setup shared by cmd/stride and
// internal/runner, the way cmd/muscle/muscle.go configures the global
// logrus logger once at startup and every package downstream just calls
// log.WithFields.
package runnerlog

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Configure sets the process-wide logrus logger to JSON output on
// stderr at the given level name (one of logrus.AllLevels), matching
// cmd/muscle/muscle.go's startup sequence.
func Configure(levelName string) error {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.JSONFormatter{})
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("runnerlog: parse level %q: %w", levelName, err)
	}
	log.SetLevel(level)
	return nil
}

// ForTask returns a logger pre-populated with the task's identity, the
// way muscle.go's cmdlog := log.WithField("op", cmd) keeps a single
// entry around for a unit of work instead of repeating fields at every
// call site.
func ForTask(name, instance string) *log.Entry {
	return log.WithFields(log.Fields{
		"task":     name,
		"instance": instance,
	})
}
