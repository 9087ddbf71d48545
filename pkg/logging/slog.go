package logging

import (
	"log/slog"
	"os"
)

// New returns a JSON logger tagged with the service name so the log
// streams of all five services can be merged and still attributed.
func New(service string) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(h).With("service", service)
}
