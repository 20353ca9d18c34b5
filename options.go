package mempool

import (
	"errors"

	"golang.org/x/exp/slog"
)

// Options is the configuration of a Manager.
type Options struct {
	// Capacity is the arena size in bytes.
	Capacity int

	// Logger receives init warnings and allocation failures.
	// Nil means discard.
	Logger *slog.Logger
}

// DefaultOptions
var DefaultOptions = Options{
	Capacity: 64 * 1024, // 64 KB
	Logger:   nil,
}

func checkOptions(options Options) error {
	if options.Capacity <= 0 {
		return errors.New("mempool/options: invalid capacity")
	}
	if uint64(options.Capacity) > MaxCapacity {
		return errors.New("mempool/options: capacity overflows the limit of uint32")
	}
	return nil
}
