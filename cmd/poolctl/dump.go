package main

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/xgzlucario/mempool"
)

var (
	dumpAllocs  int
	dumpFreePct int
	dumpSeed    int64
	dumpJSON    bool
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().IntVarP(&dumpAllocs, "allocs", "n", 32, "Number of random allocations")
	cmd.Flags().IntVar(&dumpFreePct, "free", 30, "Percentage of blocks freed afterwards")
	cmd.Flags().Int64Var(&dumpSeed, "seed", 1, "Workload seed")
	cmd.Flags().BoolVar(&dumpJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Fill an arena randomly and print its block layout",
		Long: `The dump command allocates random sizes, frees a share of them and prints
the resulting blocks and gaps.

Example:
  poolctl dump --capacity 4096 --allocs 64 --free 50
  poolctl dump --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			defer m.Deinit()

			populate(m, gofakeit.New(dumpSeed), dumpAllocs, dumpFreePct)

			if err := m.Check(); err != nil {
				return err
			}
			if dumpJSON {
				src, err := m.MarshalJSON()
				if err != nil {
					return err
				}
				fmt.Println(string(src))
				return nil
			}
			printLayout(m)
			return nil
		},
	}
}

// populate allocates n random blocks and frees freePct percent of them.
func populate(m *mempool.Manager, faker *gofakeit.Faker, n, freePct int) {
	maxSize := m.Stats().Capacity / 8
	if maxSize < 1 {
		maxSize = 1
	}
	var handles []mempool.Handle
	for i := 0; i < n; i++ {
		if h, err := m.Alloc(faker.IntRange(1, maxSize)); err == nil {
			handles = append(handles, h)
		}
	}
	for _, h := range handles {
		if faker.IntRange(0, 99) < freePct {
			m.Free(h)
		}
	}
}

func printLayout(m *mempool.Manager) {
	printInfo("%-10s %-10s %-10s %s\n", "START", "END", "SIZE", "KIND")

	prev := 0
	for _, b := range m.Blocks() {
		if b.Start > prev {
			printRange(prev, b.Start, "gap")
		}
		printRange(b.Start, b.End, "block")
		prev = b.End
	}
	stats := m.Stats()
	if stats.Capacity > prev {
		printRange(prev, stats.Capacity, "gap")
	}

	printInfo("\nin use: %s / %s (%.1f%%), %d blocks, largest gap %s\n",
		humanize.IBytes(uint64(stats.InUse)), humanize.IBytes(uint64(stats.Capacity)),
		stats.Utilization()*100, stats.Blocks, humanize.IBytes(uint64(stats.LargestGap)))
}

func printRange(start, end int, kind string) {
	printInfo("%-10d %-10d %-10s %s\n", start, end, humanize.IBytes(uint64(end-start)), kind)
}
