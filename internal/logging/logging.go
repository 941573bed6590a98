// Package logging configures logrus for the bridge and keeps the audit
// trail of executed statements.
package logging

import (
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Setup returns a logger writing to out (stderr when nil). An unknown level
// falls back to info. Stdout stays free for the MCP stdio transport.
func Setup(level string, jsonFormat bool, out io.Writer) *log.Logger {
	logger := log.New()

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	if jsonFormat {
		logger.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	return logger
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}
