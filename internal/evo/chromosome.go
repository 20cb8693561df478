package evo

import (
	"tourney/internal/genome"
)

// Chromosome pairs a genome with its fitness. Lower fitness is better and a
// negative fitness marks the individual as non-viable.
type Chromosome[G genome.Gene] struct {
	Genome  *genome.Genome[G]
	Fitness float64
}

func (c Chromosome[G]) Viable() bool {
	return c.Fitness >= 0
}

// Clone deep-copies the genome so the result shares no state with c.
func (c Chromosome[G]) Clone() Chromosome[G] {
	return Chromosome[G]{Genome: c.Genome.Clone(), Fitness: c.Fitness}
}

// Population is the ordered working set of one generation stage.
type Population[G genome.Gene] []Chromosome[G]

// Evaluator scores a genome. A negative score marks it non-viable. An error
// means the genome could not be scored at all and aborts the run.
type Evaluator[G genome.Gene] interface {
	Score(g *genome.Genome[G]) (float64, error)
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc[G genome.Gene] func(g *genome.Genome[G]) (float64, error)

func (f EvaluatorFunc[G]) Score(g *genome.Genome[G]) (float64, error) {
	return f(g)
}

// evaluate rescores every member in place and drops the non-viable ones.
func evaluate[G genome.Gene](evaluator Evaluator[G], population Population[G]) (Population[G], error) {
	for i := range population {
		fitness, err := evaluator.Score(population[i].Genome)
		if err != nil {
			return nil, err
		}
		population[i].Fitness = fitness
	}
	return dropNonViable(population), nil
}

func dropNonViable[G genome.Gene](population Population[G]) Population[G] {
	kept := population[:0]
	for _, c := range population {
		if c.Viable() {
			kept = append(kept, c)
		}
	}
	clear(population[len(kept):])
	return kept
}
