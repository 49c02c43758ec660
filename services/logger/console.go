package logsvc

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/account"
)

// ConsoleLogger writes structured entries through logrus.
type ConsoleLogger struct {
	log *logrus.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

// NewConsoleLogger logs to out (stderr when nil); debug entries are kept only when debug is set.
func NewConsoleLogger(out io.Writer, debug bool) *ConsoleLogger {
	if out == nil {
		out = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: out != os.Stderr})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return &ConsoleLogger{log: l}
}

// entry turns the args into fields: error | map[string]interface{} | account.User | anything else.
func (l *ConsoleLogger) entry(args []interface{}) *logrus.Entry {
	e := logrus.NewEntry(l.log)
	for i, arg := range args {
		switch v := arg.(type) {
		case error:
			e = e.WithError(v)
		case map[string]interface{}:
			e = e.WithFields(v)
		case account.User:
			e = e.WithField("user", v.Username)
		case nil:
		default:
			e = e.WithField(fmt.Sprintf("arg%d", i), v)
		}
	}
	return e
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) { l.entry(args).Debug(msg) }
func (l *ConsoleLogger) Info(msg string, args ...interface{})  { l.entry(args).Info(msg) }
func (l *ConsoleLogger) Warn(msg string, args ...interface{})  { l.entry(args).Warn(msg) }
func (l *ConsoleLogger) Error(msg string, args ...interface{}) { l.entry(args).Error(msg) }
func (l *ConsoleLogger) Fatal(msg string, args ...interface{}) { l.entry(args).Fatal(msg) }

// New picks the rollbar logger when a token is configured.
func New(conf *core.Config) core.Logger {
	console := NewConsoleLogger(nil, conf.Debug)
	if conf.RollbarToken == "" {
		return console
	}
	rl := NewRollbarLogger(console, conf)
	rl.Enable(!conf.Debug)
	return rl
}
