package route

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
)

// GenerateOptions controls random city lists.
type GenerateOptions struct {
	Count  int
	Extent float64
	// Flat keeps every city at z = 0.
	Flat bool
	Seed int64
}

// Generate places Count cities uniformly in a cube of side Extent. Names
// are C001, C002 and so on; coordinates are rounded to three decimals.
func Generate(opts GenerateOptions) ([]City, error) {
	if opts.Count <= 0 {
		return nil, ErrNoCities
	}
	if opts.Extent <= 0 {
		opts.Extent = 100
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	width := max(len(strconv.Itoa(opts.Count)), 3)

	cities := make([]City, 0, opts.Count)
	for i := 1; i <= opts.Count; i++ {
		p := Point{
			X: roundCoord(rng.Float64() * opts.Extent),
			Y: roundCoord(rng.Float64() * opts.Extent),
		}
		if !opts.Flat {
			p.Z = roundCoord(rng.Float64() * opts.Extent)
		}
		cities = append(cities, City{Name: fmt.Sprintf("C%0*d", width, i), Loc: p})
	}
	return cities, nil
}

// Write emits cities in the format Parse reads.
func Write(w io.Writer, cities []City) error {
	bw := bufio.NewWriter(w)
	for _, c := range cities {
		if _, err := fmt.Fprintf(bw, "%s %s,%s,%s\n", c.Name,
			strconv.FormatFloat(c.Loc.X, 'g', -1, 64),
			strconv.FormatFloat(c.Loc.Y, 'g', -1, 64),
			strconv.FormatFloat(c.Loc.Z, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func roundCoord(v float64) float64 {
	return math.Round(v*1000) / 1000
}
