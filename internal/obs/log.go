package obs

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var base = newLogger(os.Stdout)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap:        logrus.FieldMap{logrus.FieldKeyTime: "ts"},
	})
	return l
}

// EnableDebug globally enables debug logs.
func EnableDebug(v bool) {
	if v {
		base.SetLevel(logrus.DebugLevel)
		return
	}
	base.SetLevel(logrus.InfoLevel)
}

// SetOutput redirects log lines, mostly for tests.
func SetOutput(w io.Writer) { base.SetOutput(w) }

type Fields = logrus.Fields

func Info(msg string, f Fields)  { base.WithFields(f).Info(msg) }
func Warn(msg string, f Fields)  { base.WithFields(f).Warn(msg) }
func Error(msg string, f Fields) { base.WithFields(f).Error(msg) }
func Debug(msg string, f Fields) { base.WithFields(f).Debug(msg) }

// DebugEnabled lets callers skip building expensive fields.
func DebugEnabled() bool { return base.IsLevelEnabled(logrus.DebugLevel) }
