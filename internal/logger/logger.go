// Package logger builds the process-wide logrus logger from the environment.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const service = "jobber"

// Options configures New. Zero values fall back to LOG_LEVEL and LOG_FORMAT.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // json or text
	Output io.Writer
}

// New reads LOG_LEVEL and LOG_FORMAT and returns a logger that stamps
// every entry with the service name.
func New() *logrus.Logger {
	return NewWith(Options{})
}

func NewWith(o Options) *logrus.Logger {
	if o.Level == "" {
		o.Level = os.Getenv("LOG_LEVEL")
	}
	if o.Format == "" {
		o.Format = os.Getenv("LOG_FORMAT")
	}
	if o.Output == nil {
		o.Output = os.Stdout
	}

	l := logrus.New()
	l.SetOutput(o.Output)

	switch strings.ToLower(strings.TrimSpace(o.Format)) {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(o.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	l.AddHook(serviceHook{})
	return l
}

type serviceHook struct{}

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = service
	}
	return nil
}
