// Package logging builds the loggers shared by the server and client
// binaries: a configurable level with output to a console writer, a log
// file, or both.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger at the given level. Output goes to console when
// non-nil and is teed into the file at path when path is non-empty. The
// returned closer releases the file sink.
func New(level logrus.Level, console io.Writer, path string) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(level)

	var writers []io.Writer
	if console != nil {
		writers = append(writers, console)
	}

	closer := func() error { return nil }
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", path, err)
		}
		writers = append(writers, f)
		closer = f.Close
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	logger.WithFields(logrus.Fields{
		"level": level.String(),
		"file":  path,
	}).Debug("Logger built")
	return logger, closer, nil
}
