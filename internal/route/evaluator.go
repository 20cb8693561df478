package route

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"tourney/internal/genome"
)

// NonViable is the score given to tours that do not start at the first city.
const NonViable = -1.0

// Evaluator scores genomes against a fixed city list. The tour visits the
// cities in ascending order of their gene values; ties keep list order.
type Evaluator[G genome.Gene] struct {
	cities []City
}

func NewEvaluator[G genome.Gene](cities []City) (*Evaluator[G], error) {
	if len(cities) == 0 {
		return nil, ErrNoCities
	}
	return &Evaluator[G]{cities: slices.Clone(cities)}, nil
}

// Length is the genome length this evaluator expects.
func (e *Evaluator[G]) Length() int {
	return len(e.cities)
}

func (e *Evaluator[G]) Cities() []City {
	return slices.Clone(e.cities)
}

// Order returns city indices in visiting order.
func (e *Evaluator[G]) Order(g *genome.Genome[G]) ([]int, error) {
	if g.Len() != len(e.cities) {
		return nil, fmt.Errorf("%w: genome has %d genes, %d cities loaded", ErrLengthMismatch, g.Len(), len(e.cities))
	}
	genes := g.Genes()
	order := make([]int, len(genes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return genes[order[a]] < genes[order[b]]
	})
	return order, nil
}

// Score returns the closed tour length, or NonViable when the tour does not
// start at the first listed city.
func (e *Evaluator[G]) Score(g *genome.Genome[G]) (float64, error) {
	order, err := e.Order(g)
	if err != nil {
		return 0, err
	}
	if order[0] != 0 {
		return NonViable, nil
	}
	total := 0.0
	for i := 1; i < len(order); i++ {
		total += e.cities[order[i-1]].Loc.Distance(e.cities[order[i]].Loc)
	}
	total += e.cities[order[len(order)-1]].Loc.Distance(e.cities[order[0]].Loc)
	return total, nil
}

// ShowRoute renders the tour as "A->B->C".
func (e *Evaluator[G]) ShowRoute(g *genome.Genome[G]) (string, error) {
	order, err := e.Order(g)
	if err != nil {
		return "", err
	}
	names := make([]string, len(order))
	for i, idx := range order {
		names[i] = e.cities[idx].Name
	}
	return strings.Join(names, "->"), nil
}

// Dump writes the city table, one "name<TAB>(x,y,z)" row per city.
func (e *Evaluator[G]) Dump(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "\n==============="); err != nil {
		return err
	}
	for _, c := range e.cities {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Loc); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "===============")
	return err
}
