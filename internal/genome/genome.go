// Package genome implements the fixed-length integer genome used by the
// route optimizer together with its genetic operators and text encoding.
//
// A Genome is never resized after creation: recombine and splice always
// write into a fresh Genome and read their parents without modifying them.
package genome

import (
	"fmt"
	"math/rand"
	"slices"

	"golang.org/x/exp/constraints"
)

// Gene is the value type stored in a genome.
type Gene interface {
	constraints.Unsigned
}

// defaultSeed backs operations called with a nil random source.
const defaultSeed int64 = 1

// Mutation records the last gene overwrite applied to a genome.
type Mutation[G Gene] struct {
	Index int
	Value G
}

type Genome[G Gene] struct {
	genes []G
	last  Mutation[G]
}

// Random returns a genome of length genes drawn independently from rng.
// A nil rng falls back to a fixed-seed stream.
func Random[G Gene](rng *rand.Rand, length int) *Genome[G] {
	if length < 0 {
		length = 0
	}
	rng = sourceOrDefault(rng)
	genes := make([]G, length)
	for i := range genes {
		genes[i] = randomGene[G](rng)
	}
	return &Genome[G]{genes: genes, last: Mutation[G]{Index: -1}}
}

// FromGenes returns a genome holding a copy of genes.
func FromGenes[G Gene](genes []G) *Genome[G] {
	return &Genome[G]{genes: slices.Clone(genes), last: Mutation[G]{Index: -1}}
}

func (g *Genome[G]) Len() int {
	if g == nil {
		return 0
	}
	return len(g.genes)
}

// At returns the gene at index.
func (g *Genome[G]) At(index int) (G, error) {
	if index < 0 || index >= g.Len() {
		return 0, fmt.Errorf("%w: received %d, allowed range is [0,%d)", ErrIndex, index, g.Len())
	}
	return g.genes[index], nil
}

// Genes returns a copy of the gene sequence.
func (g *Genome[G]) Genes() []G {
	if g == nil {
		return nil
	}
	return slices.Clone(g.genes)
}

// RandomIndex returns a uniformly distributed valid index.
func (g *Genome[G]) RandomIndex(rng *rand.Rand) (int, error) {
	if g.Len() == 0 {
		return 0, fmt.Errorf("%w: genome is empty", ErrRandIndex)
	}
	if rng == nil {
		return 0, fmt.Errorf("%w: random source is required", ErrRandIndex)
	}
	return rng.Intn(len(g.genes)), nil
}

// LastMutation reports the most recent Mutate call; ok is false when the
// genome has not been mutated since it was created.
func (g *Genome[G]) LastMutation() (Mutation[G], bool) {
	if g == nil || g.last.Index < 0 {
		return Mutation[G]{Index: -1}, false
	}
	return g.last, true
}

func (g *Genome[G]) Clone() *Genome[G] {
	if g == nil {
		return nil
	}
	return &Genome[G]{genes: slices.Clone(g.genes), last: g.last}
}

// Equal compares gene sequences only.
func (g *Genome[G]) Equal(other *Genome[G]) bool {
	return slices.Equal(g.Genes(), other.Genes())
}

func (g *Genome[G]) String() string {
	return g.Encode()
}

func randomGene[G Gene](rng *rand.Rand) G {
	return G(rng.Uint64())
}

func sourceOrDefault(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return rand.New(rand.NewSource(defaultSeed))
	}
	return rng
}
