package evo

import (
	"fmt"
	"math/rand"

	"tourney/internal/genome"
)

// Operator selects how two parents produce a child. One operator is used for
// the whole run.
type Operator string

const (
	OperatorSplice    Operator = "splice"
	OperatorRecombine Operator = "recombine"
)

func ParseOperator(raw string) (Operator, error) {
	switch op := Operator(raw); op {
	case OperatorSplice, OperatorRecombine:
		return op, nil
	case "":
		return OperatorSplice, nil
	default:
		return "", fmt.Errorf("%w: unknown operator %q", ErrConfig, raw)
	}
}

// Apply produces one child from a and b at randomly drawn points.
func Apply[G genome.Gene](op Operator, rng *rand.Rand, a, b *genome.Genome[G]) (*genome.Genome[G], error) {
	switch op {
	case OperatorSplice:
		return genome.SpliceRandom(a, b, rng)
	case OperatorRecombine:
		return genome.RecombineRandom(a, b, rng)
	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
}

// pairCursor walks a pool of size members in fitness order, yielding
// (0,1), (0,2) ... (0,n-1), (1,2) ... (n-2,n-1) and then starting over.
// A pool of one pairs its only member with itself.
type pairCursor struct {
	outer int
	inner int
	size  int
}

func newPairCursor(size int) *pairCursor {
	return &pairCursor{size: size}
}

func (c *pairCursor) next() (int, int) {
	if c.size < 2 {
		return 0, 0
	}
	c.inner++
	if c.inner == c.size {
		c.outer++
		c.inner = c.outer + 1
	}
	if c.inner >= c.size {
		c.outer = 0
		c.inner = 1
	}
	return c.outer, c.inner
}

// reproduce appends children bred from pool to population until it holds
// target members.
func reproduce[G genome.Gene](rng *rand.Rand, op Operator, pool *Index[G], population Population[G], target int) (Population[G], int, error) {
	if len(population) >= target {
		return population, 0, nil
	}
	if pool.Len() == 0 {
		return population, 0, fmt.Errorf("empty breeding pool: %w", ErrExtinct)
	}
	cursor := newPairCursor(pool.Len())
	bred := 0
	for len(population) < target {
		i, j := cursor.next()
		child, err := Apply(op, rng, pool.At(i).Genome, pool.At(j).Genome)
		if err != nil {
			return population, bred, err
		}
		population = append(population, Chromosome[G]{Genome: child})
		bred++
	}
	return population, bred, nil
}
