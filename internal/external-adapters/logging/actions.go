package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ochairo/pkgbump/internal/domain/interfaces"
)

// ActionsLogger writes GitHub Actions workflow commands so that warnings and
// errors show up as annotations on the run
type ActionsLogger struct {
	mu    sync.Mutex
	w     io.Writer
	debug bool
}

// NewActionsLogger creates a workflow command logger
func NewActionsLogger(w io.Writer, debug bool) *ActionsLogger {
	return &ActionsLogger{w: w, debug: debug}
}

// Debug emits ::debug:: when debug mode is on
func (a *ActionsLogger) Debug(msg string, fields ...interfaces.Field) {
	if !a.debug {
		return
	}
	a.emit("debug", msg, fields)
}

// Info emits ::notice::
func (a *ActionsLogger) Info(msg string, fields ...interfaces.Field) {
	a.emit("notice", msg, fields)
}

// Warn emits ::warning::
func (a *ActionsLogger) Warn(msg string, fields ...interfaces.Field) {
	a.emit("warning", msg, fields)
}

// Error emits ::error::
func (a *ActionsLogger) Error(msg string, fields ...interfaces.Field) {
	a.emit("error", msg, fields)
}

func (a *ActionsLogger) emit(command, msg string, fields []interfaces.Field) {
	var b strings.Builder
	b.WriteString(msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	//nolint:errcheck // diagnostics are best effort
	fmt.Fprintf(a.w, "::%s::%s\n", command, escapeData(b.String()))
}

// escapeData encodes the characters workflow commands treat specially
func escapeData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}
