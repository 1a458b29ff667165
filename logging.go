package geomap

import (
	"io"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gekko3d/geomap/layer"
	"github.com/sirupsen/logrus"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

var _ layer.Logger = Logger(nil)

// DefaultLogger writes through logrus with the nested formatter.
type DefaultLogger struct {
	log *logrus.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewDefaultLoggerTo(os.Stderr, prefix, debug)
}

func NewDefaultLoggerTo(w io.Writer, prefix string, debug bool) *DefaultLogger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		NoColors:        true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	l := &DefaultLogger{log: log}
	if prefix != "" {
		log.AddHook(prefixHook(prefix))
	}
	l.SetDebug(debug)
	return l
}

// prefixHook tags every entry with a component field, printed as [prefix].
type prefixHook string

func (h prefixHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h prefixHook) Fire(e *logrus.Entry) error {
	e.Data["component"] = string(h)
	return nil
}

func (l *DefaultLogger) DebugEnabled() bool {
	return l.log.IsLevelEnabled(logrus.DebugLevel)
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	if enabled {
		l.log.SetLevel(logrus.DebugLevel)
	} else {
		l.log.SetLevel(logrus.InfoLevel)
	}
}

func (l *DefaultLogger) Debugf(format string, args ...any) { l.log.Debugf(format, args...) }
func (l *DefaultLogger) Infof(format string, args ...any)  { l.log.Infof(format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.log.Warnf(format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.log.Errorf(format, args...) }

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }

func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}
