package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xgzlucario/mempool"
	"github.com/xgzlucario/mempool/list"
)

func init() {
	rootCmd.AddCommand(newScenarioCmd())
}

func newScenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario",
		Short: "Replay the reference allocation scenarios",
		Long: `The scenario command replays three fixed scenarios and fails on the first
unexpected result:

  first-fit   init(100), alloc 30 and 40, free the first, alloc 50 fails,
              alloc 30 reuses the freed gap
  zero-size   init(10), alloc(0) returns the arena base without a block
  list        insert 1, 2, 3, delete 2, display and count

Example:
  poolctl scenario`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range scenarios {
				if err := s.run(); err != nil {
					return fmt.Errorf("%s: %w", s.name, err)
				}
				printInfo("%-10s ok\n", s.name)
			}
			return nil
		},
	}
}

var scenarios = []struct {
	name string
	run  func() error
}{
	{"first-fit", scenarioFirstFit},
	{"zero-size", scenarioZeroSize},
	{"list", scenarioList},
}

func scenarioFirstFit() error {
	m, err := mempool.New(mempool.Options{Capacity: 100})
	if err != nil {
		return err
	}
	defer m.Deinit()

	a0, err := m.Alloc(30)
	if err != nil {
		return err
	}
	a1, err := m.Alloc(40)
	if err != nil {
		return err
	}
	if a1.Offset() != a0.Offset()+30 {
		return fmt.Errorf("second block at %d, want %d", a1.Offset(), a0.Offset()+30)
	}
	m.Free(a0)

	if _, err := m.Alloc(50); !errors.Is(err, mempool.ErrNoSpace) {
		return fmt.Errorf("alloc(50) = %v, want %v", err, mempool.ErrNoSpace)
	}
	a2, err := m.Alloc(30)
	if err != nil {
		return err
	}
	if a2.Offset() != a0.Offset() {
		return fmt.Errorf("alloc(30) at %d, want the freed gap at %d", a2.Offset(), a0.Offset())
	}
	return m.Check()
}

func scenarioZeroSize() error {
	m, err := mempool.New(mempool.Options{Capacity: 10})
	if err != nil {
		return err
	}
	defer m.Deinit()

	h, err := m.Alloc(0)
	if err != nil {
		return err
	}
	if !h.IsEmpty() || h.Offset() != 0 {
		return fmt.Errorf("alloc(0) = %v, want the empty handle", h)
	}
	if n := m.Stats().Blocks; n != 0 {
		return fmt.Errorf("%d blocks after alloc(0), want 0", n)
	}
	return nil
}

func scenarioList() error {
	l := list.New[uint16](1024)
	defer l.Cleanup()

	for _, v := range []uint16{1, 2, 3} {
		if err := l.Insert(v); err != nil {
			return err
		}
	}
	if got := l.Display(); got != "[1, 2, 3]" {
		return fmt.Errorf("display = %s, want [1, 2, 3]", got)
	}
	l.Delete(2)
	if got := l.Display(); got != "[1, 3]" {
		return fmt.Errorf("display = %s, want [1, 3]", got)
	}
	if n := l.Count(); n != 2 {
		return fmt.Errorf("count = %d, want 2", n)
	}
	return nil
}
