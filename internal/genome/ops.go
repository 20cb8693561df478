package genome

import (
	"fmt"
	"math/rand"
)

// Recombine returns a child whose genes [0, point) come from a and whose
// remaining genes [point, b.Len()) come from b. point must be a valid index
// of both parents.
func Recombine[G Gene](a, b *Genome[G], point int) (*Genome[G], error) {
	if point < 0 || point >= a.Len() || point >= b.Len() {
		return nil, fmt.Errorf("%w: crossover point %d outside parents of length %d and %d", ErrRecombine, point, a.Len(), b.Len())
	}
	genes := make([]G, b.Len())
	copy(genes[:point], a.genes[:point])
	copy(genes[point:], b.genes[point:])
	return &Genome[G]{genes: genes, last: Mutation[G]{Index: -1}}, nil
}

// RecombineRandom draws the crossover point from rng.
func RecombineRandom[G Gene](a, b *Genome[G], rng *rand.Rand) (*Genome[G], error) {
	point, err := a.RandomIndex(rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecombine, err)
	}
	return Recombine(a, b, point)
}

// Splice returns a copy of a with a segment taken from b.
//
// When start <= end the child holds b[start..end] inclusive in place. When
// start > end the segment b[end..start] is written in reverse order, so
// child[start-k] = b[end+k] for k in [0, start-end].
func Splice[G Gene](a, b *Genome[G], start, end int) (*Genome[G], error) {
	n := a.Len()
	if n != b.Len() {
		return nil, fmt.Errorf("%w: parent lengths differ (%d vs %d)", ErrSplice, n, b.Len())
	}
	if start < 0 || start >= n || end < 0 || end >= n {
		return nil, fmt.Errorf("%w: bounds (%d,%d) outside [0,%d)", ErrSplice, start, end, n)
	}
	genes := make([]G, n)
	copy(genes, a.genes)
	if start <= end {
		copy(genes[start:end+1], b.genes[start:end+1])
	} else {
		for k := 0; k <= start-end; k++ {
			genes[start-k] = b.genes[end+k]
		}
	}
	return &Genome[G]{genes: genes, last: Mutation[G]{Index: -1}}, nil
}

// SpliceRandom draws both bounds independently from rng.
func SpliceRandom[G Gene](a, b *Genome[G], rng *rand.Rand) (*Genome[G], error) {
	start, err := a.RandomIndex(rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSplice, err)
	}
	end, err := a.RandomIndex(rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSplice, err)
	}
	return Splice(a, b, start, end)
}

// Mutate overwrites the gene at index and records the change.
func (g *Genome[G]) Mutate(index int, value G) error {
	if index < 0 || index >= g.Len() {
		return fmt.Errorf("%w: index %d outside [0,%d)", ErrMutate, index, g.Len())
	}
	g.genes[index] = value
	g.last = Mutation[G]{Index: index, Value: value}
	return nil
}

// MutateAt overwrites the gene at index with a value drawn from rng.
func (g *Genome[G]) MutateAt(index int, rng *rand.Rand) error {
	return g.Mutate(index, randomGene[G](sourceOrDefault(rng)))
}

// MutateRandom overwrites a random gene with a random value and returns
// the index that changed.
func (g *Genome[G]) MutateRandom(rng *rand.Rand) (int, error) {
	index, err := g.RandomIndex(rng)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMutate, err)
	}
	return index, g.Mutate(index, randomGene[G](rng))
}
