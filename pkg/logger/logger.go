package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type Options struct {
	Level string
	// File enables a rotated copy of the output next to stdout.
	File string
}

// New builds the JSON logger shared by every layer. The returned closer flushes the
// rotated file, if any.
func New(opts Options) (*logrus.Logger, io.Closer) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if opts.File == "" {
		return logger, nopCloser{}
	}
	rotated := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     7,
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, rotated))
	return logger, rotated
}
