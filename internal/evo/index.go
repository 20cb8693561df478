package evo

import (
	"fmt"
	"slices"
	"sort"

	"tourney/internal/genome"
)

// Index orders chromosomes by fitness, ascending. It is keyed by the fitness
// value itself: inserting a chromosome whose fitness is already present
// replaces the previous holder, so Len counts distinct fitness values.
type Index[G genome.Gene] struct {
	byFitness map[float64]Chromosome[G]
	keys      []float64
}

func NewIndex[G genome.Gene]() *Index[G] {
	return &Index[G]{byFitness: map[float64]Chromosome[G]{}}
}

// IndexPopulation builds an index from population in order, so the last
// member with a given fitness is the one retained.
func IndexPopulation[G genome.Gene](population Population[G]) *Index[G] {
	idx := NewIndex[G]()
	for _, c := range population {
		idx.Set(c)
	}
	return idx
}

// Set stores c under its fitness. Last write wins.
func (x *Index[G]) Set(c Chromosome[G]) {
	if _, ok := x.byFitness[c.Fitness]; !ok {
		pos := sort.SearchFloat64s(x.keys, c.Fitness)
		x.keys = slices.Insert(x.keys, pos, c.Fitness)
	}
	x.byFitness[c.Fitness] = c
}

func (x *Index[G]) Len() int {
	if x == nil {
		return 0
	}
	return len(x.keys)
}

// At returns the i-th chromosome in ascending fitness order.
func (x *Index[G]) At(i int) Chromosome[G] {
	return x.byFitness[x.keys[i]]
}

// Lookup returns the chromosome stored under fitness.
func (x *Index[G]) Lookup(fitness float64) (Chromosome[G], bool) {
	c, ok := x.byFitness[fitness]
	return c, ok
}

// First returns the best (lowest fitness) entry.
func (x *Index[G]) First() (Chromosome[G], bool) {
	if x.Len() == 0 {
		return Chromosome[G]{}, false
	}
	return x.At(0), true
}

// Last returns the worst (highest fitness) entry.
func (x *Index[G]) Last() (Chromosome[G], bool) {
	if x.Len() == 0 {
		return Chromosome[G]{}, false
	}
	return x.At(x.Len() - 1), true
}

// Ascending returns the first n entries in fitness order; n is clamped to Len.
func (x *Index[G]) Ascending(n int) Population[G] {
	n = min(max(n, 0), x.Len())
	out := make(Population[G], 0, n)
	for i := 0; i < n; i++ {
		out = append(out, x.At(i))
	}
	return out
}

func (x *Index[G]) Fitnesses() []float64 {
	return slices.Clone(x.keys)
}

// Entropy is the share of population members with a distinct fitness, as a
// percentage in (0, 100].
func Entropy[G genome.Gene](index *Index[G], population Population[G]) (float64, error) {
	if len(population) == 0 {
		return 0, fmt.Errorf("entropy of empty population: %w", ErrExtinct)
	}
	return float64(index.Len()) * 100 / float64(len(population)), nil
}
