// Package logging builds the structured logger shared by the server and CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kozaktomas/barface/internal/config"
	"github.com/sirupsen/logrus"
)

// New creates a logrus.Logger from the log configuration.
// Unknown levels fall back to info, unknown formats to text.
func New(cfg config.LogConfig) *logrus.Logger {
	return NewWithOutput(cfg, os.Stdout)
}

// NewWithOutput is New with an explicit writer, used by tests.
func NewWithOutput(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level := logrus.InfoLevel
	if cfg.Level != "" {
		if lv, err := logrus.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
			level = lv
		}
	}
	logger.SetLevel(level)

	var underlying logrus.Formatter
	if cfg.Format == "json" {
		underlying = &logrus.JSONFormatter{
			CallerPrettyfier: hideCaller,
		}
	} else {
		underlying = &logrus.TextFormatter{
			FullTimestamp:    true,
			CallerPrettyfier: hideCaller,
		}
	}

	logger.SetFormatter(&sourceFormatter{underlying: underlying})
	logger.SetReportCaller(true)

	return logger
}

// hideCaller drops logrus' own func/file fields; sourceFormatter adds a shorter one.
func hideCaller(*runtime.Frame) (string, string) {
	return "", ""
}

// sourceFormatter adds a "source" field with the base file name and line.
type sourceFormatter struct {
	underlying logrus.Formatter
}

func (f *sourceFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry.HasCaller() {
		entry.Data["source"] = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	return f.underlying.Format(entry)
}
