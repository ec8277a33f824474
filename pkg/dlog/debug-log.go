package dlog

import (
	"io"
	"log/slog"
	"os"

	"github.com/golang-cz/devslog"
)

type Dlog struct {
	*slog.Logger
}

// Init installs a devslog handler writing to w as the default logger.
func Init(w io.Writer, debug bool) Dlog {
	slogOpts := &slog.HandlerOptions{
		AddSource: true,
	}

	if debug {
		slogOpts.Level = slog.LevelDebug
	}

	opts := &devslog.Options{
		HandlerOptions:    slogOpts,
		MaxSlicePrintSize: 4,
		SortKeys:          true,
		NewLineAfterLog:   false,
	}

	logger := slog.New(devslog.NewHandler(w, opts))

	slog.SetDefault(logger)

	return Dlog{logger}
}

// Open returns the log destination: stdout for an empty path, otherwise the
// file at path opened for appending.
func Open(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// debug log
func (d Dlog) Log(msg string, args ...any) {
	d.Debug(msg, args...)
}
