// Package logging builds the hclog loggers used by the command line.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// NewLogger creates the root logger. Output goes to w, or stderr when w is
// nil, since stdout carries program output.
func NewLogger(level hclog.Level, json bool, w io.Writer) hclog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "jobshop",
		Level:      level,
		JSONFormat: json,
		Output:     w,
	})
}

// ParseLevel converts a level name. Unlike hclog.LevelFromString it rejects
// unknown names instead of mapping them to NoLevel.
func ParseLevel(s string) (hclog.Level, error) {
	l := hclog.LevelFromString(s)
	if l == hclog.NoLevel {
		return hclog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}
