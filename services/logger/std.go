package logsvc

import (
	"log"

	"github.com/prepdesk/prepdesk/core"
)

// StdLogger logs to a std logger only; used in DEV/TEST where error
// reporting is not wired up.
type StdLogger struct {
	std *log.Logger
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std}
}

func (l StdLogger) Enable(bool) {}

func (l StdLogger) print(lvl, msg string, args []interface{}) {
	l.std.Printf("%s: %s", lvl, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l StdLogger) Debug(msg string, args ...interface{}) { l.print("DEBUG", msg, args) }
func (l StdLogger) Info(msg string, args ...interface{})  { l.print("INFO", msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { l.print("WARN", msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { l.print("ERROR", msg, args) }
func (l StdLogger) Fatal(msg string, args ...interface{}) {
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
