package mempool

import (
	"context"
	"io"
	"os"

	"golang.org/x/exp/slog"
)

// NewTextLogger creates a logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger creates a logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// noopLogger discards all log output.
func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	}))
}

func (m *Manager) logger() *slog.Logger {
	if m.log == nil {
		m.log = noopLogger()
	}
	return m.log
}

func (m *Manager) logInit(capacity int) {
	if m.data == nil {
		m.logger().Warn("arena init failed",
			"capacity", capacity,
		)
		return
	}
	m.logger().Debug("arena initialized",
		"capacity", capacity,
	)
}

func (m *Manager) logAlloc(op string, size int, err error) {
	l := m.logger()
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.Debug(op+" failed",
		"size", size,
		"blocks", len(m.blocks),
		"capacity", m.capacity,
		"error", err,
	)
}

func (m *Manager) logDeinit(live, inUse int) {
	if live == 0 {
		return
	}
	m.logger().Info("arena released with live blocks",
		"blocks", live,
		"in_use", inUse,
	)
}
