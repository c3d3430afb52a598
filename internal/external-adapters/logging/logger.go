// Package logging provides the interfaces.Logger implementations used by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ochairo/pkgbump/internal/domain/interfaces"
)

// Format selects how diagnostics are written
type Format string

// Supported formats
const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatActions Format = "actions"
)

// Options configures a logger
type Options struct {
	Format Format
	Debug  bool
	Output io.Writer // Defaults to stderr
}

// New creates the logger selected by opts.Format
func New(opts Options) (interfaces.Logger, error) {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	switch Format(strings.ToLower(string(opts.Format))) {
	case FormatText, "":
		return NewCharmLogger(opts.Output, opts.Debug, log.TextFormatter), nil
	case FormatJSON:
		return NewCharmLogger(opts.Output, opts.Debug, log.JSONFormatter), nil
	case FormatActions:
		return NewActionsLogger(opts.Output, opts.Debug), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text, json or actions)", opts.Format)
	}
}

// CharmLogger writes leveled, structured diagnostics through charmbracelet/log
type CharmLogger struct {
	l *log.Logger
}

// NewCharmLogger creates a logger; debug messages are dropped unless debug is set
func NewCharmLogger(w io.Writer, debug bool, formatter log.Formatter) *CharmLogger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return &CharmLogger{
		l: log.NewWithOptions(w, log.Options{
			Prefix:          "pkgbump",
			Level:           level,
			Formatter:       formatter,
			ReportTimestamp: formatter == log.TextFormatter,
		}),
	}
}

// Debug logs debug-level messages
func (c *CharmLogger) Debug(msg string, fields ...interfaces.Field) {
	c.l.Debug(msg, interfaces.KeyVals(fields)...)
}

// Info logs informational messages
func (c *CharmLogger) Info(msg string, fields ...interfaces.Field) {
	c.l.Info(msg, interfaces.KeyVals(fields)...)
}

// Warn logs recoverable problems
func (c *CharmLogger) Warn(msg string, fields ...interfaces.Field) {
	c.l.Warn(msg, interfaces.KeyVals(fields)...)
}

// Error logs fatal problems
func (c *CharmLogger) Error(msg string, fields ...interfaces.Field) {
	c.l.Error(msg, interfaces.KeyVals(fields)...)
}
