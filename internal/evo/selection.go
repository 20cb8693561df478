package evo

import (
	"fmt"
	"math"
	"math/rand"

	"tourney/internal/genome"
)

// TournamentSelector runs binary tournaments over the working population:
// two distinct members are drawn and the one with the lower fitness wins.
type TournamentSelector[G genome.Gene] struct{}

func (TournamentSelector[G]) Name() string {
	return "tournament"
}

func (TournamentSelector[G]) PickParent(rng *rand.Rand, population Population[G]) (Chromosome[G], error) {
	if rng == nil {
		return Chromosome[G]{}, fmt.Errorf("random source is required")
	}
	if len(population) == 0 {
		return Chromosome[G]{}, fmt.Errorf("tournament over empty population: %w", ErrExtinct)
	}
	a := rng.Intn(len(population))
	b := a
	for len(population) > 1 && b == a {
		b = rng.Intn(len(population))
	}
	if population[a].Fitness > population[b].Fitness {
		return population[b], nil
	}
	return population[a], nil
}

// BreedingPlan sizes the breeding pool for one generation.
type BreedingPlan struct {
	EliteFraction float64
	BreedFraction float64
	// Bailout caps tournament attempts; fitness collisions can stop the
	// pool from growing.
	Bailout int
}

// PoolResult describes how the breeding pool was filled.
type PoolResult struct {
	Elites    int
	Target    int
	Attempts  int
	BailedOut bool
}

// EliteCount is ceil(EliteFraction * working).
func (p BreedingPlan) EliteCount(working int) int {
	return int(math.Ceil(p.EliteFraction * float64(working)))
}

// TargetSize is round(BreedFraction * working), never below 2.
func (p BreedingPlan) TargetSize(working int) int {
	return max(2, int(math.Round(p.BreedFraction*float64(working))))
}

// BuildBreedingPool copies the best entries of ranked into a fresh pool and
// then fills it by tournament over working until it reaches the target size
// or the bailout is spent. Exhausting the bailout is not an error.
func BuildBreedingPool[G genome.Gene](rng *rand.Rand, plan BreedingPlan, ranked *Index[G], working Population[G]) (*Index[G], PoolResult, error) {
	pool := NewIndex[G]()
	result := PoolResult{Target: plan.TargetSize(len(working))}

	for _, elite := range ranked.Ascending(plan.EliteCount(len(working))) {
		pool.Set(elite)
		result.Elites++
	}

	var selector TournamentSelector[G]
	bailout := plan.Bailout
	for pool.Len() < result.Target {
		if bailout <= 0 {
			result.BailedOut = true
			break
		}
		bailout--
		result.Attempts++
		winner, err := selector.PickParent(rng, working)
		if err != nil {
			return nil, result, err
		}
		pool.Set(winner)
	}
	return pool, result, nil
}
