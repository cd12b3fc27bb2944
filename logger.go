package retrorender

import (
	"log/slog"

	"github.com/gogpu/retrorender/internal/logging"
)

// SetLogger configures the logger for retrorender and all its sub-packages.
// By default, retrorender produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by retrorender:
//   - [slog.LevelDebug]: lifecycle and per-pool diagnostics (buffer misses,
//     renderer creation)
//   - [slog.LevelInfo]: configuration changes
//   - [slog.LevelWarn]: incompatible pools, allocation and upload failures
//
// Example:
//
//	retrorender.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by retrorender.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
