// Package percentile keeps a bounded window of latency samples.
package percentile

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/exp/slices"
)

// DefaultWindow is the number of samples kept before old ones are overwritten.
const DefaultWindow = 100 * 10000

// Percentile
type Percentile struct {
	// data is a ring in insertion order, pos is the oldest sample once full.
	data   []float64
	window int
	pos    int

	// sorted is a sorted copy of data, nil after any Add.
	sorted []float64
}

// New returns a Percentile keeping at most window samples.
// If window <= 0, DefaultWindow is used.
func New(window int) *Percentile {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Percentile{window: window}
}

// Add
func (p *Percentile) Add(v float64) {
	p.sorted = nil
	if len(p.data) == p.window {
		p.data[p.pos] = v
		p.pos = (p.pos + 1) % p.window
	} else {
		p.data = append(p.data, v)
	}
}

// AddDuration records d in microseconds.
func (p *Percentile) AddDuration(d time.Duration) {
	p.Add(float64(d) / float64(time.Microsecond))
}

// Merge adds every sample of o, oldest first.
func (p *Percentile) Merge(o *Percentile) {
	for _, v := range o.data[o.pos:] {
		p.Add(v)
	}
	for _, v := range o.data[:o.pos] {
		p.Add(v)
	}
}

// Len
func (p *Percentile) Len() int {
	return len(p.data)
}

func (p *Percentile) sort() []float64 {
	if p.sorted == nil {
		p.sorted = slices.Clone(p.data)
		slices.Sort(p.sorted)
	}
	return p.sorted
}

// Percentile returns the sample at rank q (0-100), 0 when empty.
func (p *Percentile) Percentile(q float64) float64 {
	if len(p.data) == 0 {
		return 0
	}
	sorted := p.sort()
	i := int((q / 100) * float64(len(sorted)))
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}

// Min
func (p *Percentile) Min() float64 {
	return p.Percentile(0)
}

// Max
func (p *Percentile) Max() float64 {
	return p.Percentile(100)
}

// Avg
func (p *Percentile) Avg() float64 {
	if len(p.data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.data {
		sum += v
	}
	return sum / float64(len(p.data))
}

// Print writes the 50th, 90th, 99th and 100th percentiles in microseconds.
func (p *Percentile) Print(w io.Writer) {
	for _, q := range []float64{50, 90, 99, 100} {
		fmt.Fprintf(w, "%.0fth = %.2f us\n", q, p.Percentile(q))
	}
}
