package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"github.com/xgzlucario/mempool"
)

var (
	// Global flags
	capacity int
	logLevel string
	quiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "poolctl",
	Short: "Exercise and inspect a mempool arena",
	Long: `poolctl drives a mempool arena from the command line. It can replay the
reference scenarios, run a concurrent stress workload with payload
verification, and dump the block layout as JSON.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&capacity, "capacity", "c", 64*1024, "Arena size in bytes")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newManager builds a manager from the global flags.
func newManager() (*mempool.Manager, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return mempool.New(mempool.Options{
		Capacity: capacity,
		Logger:   mempool.NewTextLogger(level),
	})
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}
