package logfile

import (
	"fmt"
	"io"
	stdlog "log"
)

// Logger implements the go-log Logger interface on top of the standard
// library logger.
type Logger struct {
	l *stdlog.Logger
}

// NewLogger writes timestamped entries to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{l: stdlog.New(w, "", stdlog.LstdFlags)}
}

// Log formats its arguments like fmt.Sprintln.
func (l *Logger) Log(v ...interface{}) {
	l.l.Output(2, fmt.Sprintln(v...))
}

// Logf formats its arguments like fmt.Sprintf.
func (l *Logger) Logf(format string, v ...interface{}) {
	l.l.Output(2, fmt.Sprintf(format, v...))
}
