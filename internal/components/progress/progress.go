package progress

import (
	"fmt"
	"io"
	"math"
	"strings"
)

type Options struct {
	Prefix string
	Suffix string
	// Decimals of the percentage, 1 if unset. Use a negative value for none.
	Decimals int
	// Length of the bar in cells, 100 if unset.
	Length int
}

func (o Options) withDefaults() Options {
	if o.Decimals == 0 {
		o.Decimals = 1
	}
	if o.Decimals < 0 {
		o.Decimals = 0
	}
	if o.Length <= 0 {
		o.Length = 100
	}
	return o
}

const (
	filledCell   = "█"
	unfilledCell = "-"
)

// Render returns the line for `iteration` out of `total`, starting with a carriage
// return so it overwrites the previous one. The line ends with a newline only once
// iteration reaches total. A total of zero or less renders as done.
func Render(iteration, total int, opts Options) string {
	opts = opts.withDefaults()

	ratio := 1.0
	if total > 0 {
		ratio = float64(iteration) / float64(total)
	}
	ratio = math.Max(0, math.Min(1, ratio))

	filled := int(math.RoundToEven(float64(opts.Length) * ratio))
	bar := strings.Repeat(filledCell, filled) + strings.Repeat(unfilledCell, opts.Length-filled)
	percent := fmt.Sprintf("%.*f", opts.Decimals, 100*ratio)

	line := fmt.Sprintf("\r%s |%s| %s%% %s", opts.Prefix, bar, percent, opts.Suffix)
	if total <= 0 || iteration == total {
		line += "\n"
	}
	return line
}

// Bar writes rendered lines to an output, typically stdout.
type Bar struct {
	out  io.Writer
	opts Options
}

func NewBar(out io.Writer, opts Options) Bar {
	return Bar{out: out, opts: opts}
}

// Update renders the bar for iteration out of total. Write errors are ignored, the
// bar is cosmetic.
func (b Bar) Update(iteration, total int) {
	if b.out == nil {
		return
	}
	_, _ = io.WriteString(b.out, Render(iteration, total, b.opts))
}
