package evo

import (
	"math/rand"
	"testing"
)

func TestTournamentSelectorPrefersLowerFitness(t *testing.T) {
	pop := Population[uint8]{chromosome(10, 0), chromosome(1, 1)}
	rng := rand.New(rand.NewSource(42))
	var selector TournamentSelector[uint8]
	for i := 0; i < 20; i++ {
		winner, err := selector.PickParent(rng, pop)
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		if winner.Fitness != 1 {
			t.Fatalf("expected the fitter member to win a two-member tournament, got %v", winner.Fitness)
		}
	}
}

func TestTournamentSelectorSingleMember(t *testing.T) {
	pop := Population[uint8]{chromosome(4, 0)}
	winner, err := TournamentSelector[uint8]{}.PickParent(rand.New(rand.NewSource(1)), pop)
	if err != nil {
		t.Fatalf("pick parent: %v", err)
	}
	if winner.Fitness != 4 {
		t.Fatalf("unexpected winner %v", winner.Fitness)
	}
	if _, err := (TournamentSelector[uint8]{}).PickParent(rand.New(rand.NewSource(1)), nil); err == nil {
		t.Fatal("expected error for empty population")
	}
}

func TestBreedingPlanSizes(t *testing.T) {
	plan := BreedingPlan{EliteFraction: 0.1, BreedFraction: 0.25}
	if got := plan.EliteCount(11); got != 2 {
		t.Fatalf("elite count: got %d want 2", got)
	}
	if got := plan.TargetSize(10); got != 3 {
		t.Fatalf("target size: got %d want 3", got)
	}
	if got := plan.TargetSize(2); got != 2 {
		t.Fatalf("target size floor: got %d want 2", got)
	}
}

func TestBuildBreedingPoolBailsOutOnCollisions(t *testing.T) {
	working := Population[uint8]{chromosome(5, 1), chromosome(5, 2)}
	ranked := IndexPopulation(working)
	plan := BreedingPlan{BreedFraction: 1, Bailout: 40}

	pool, result, err := BuildBreedingPool(rand.New(rand.NewSource(7)), plan, ranked, working)
	if err != nil {
		t.Fatalf("build pool: %v", err)
	}
	if pool.Len() != 1 {
		t.Fatalf("expected pool to stay at 1, got %d", pool.Len())
	}
	if !result.BailedOut || result.Attempts != 40 || result.Target != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestBuildBreedingPoolCopiesElites(t *testing.T) {
	working := Population[uint8]{chromosome(1, 0), chromosome(2, 0), chromosome(3, 0), chromosome(4, 0)}
	ranked := IndexPopulation(working)
	plan := BreedingPlan{EliteFraction: 0.5, BreedFraction: 0.5, Bailout: 100}

	pool, result, err := BuildBreedingPool(rand.New(rand.NewSource(3)), plan, ranked, working)
	if err != nil {
		t.Fatalf("build pool: %v", err)
	}
	if result.Elites != 2 || result.Attempts != 0 {
		t.Fatalf("expected elites to fill the pool, got %+v", result)
	}
	if pool.Len() != 2 || pool.At(0).Fitness != 1 || pool.At(1).Fitness != 2 {
		t.Fatalf("unexpected pool contents: %v", pool.Fitnesses())
	}
}

func TestBuildBreedingPoolFillsByTournament(t *testing.T) {
	working := make(Population[uint8], 0, 20)
	for i := 0; i < 20; i++ {
		working = append(working, chromosome(float64(i), uint8(i)))
	}
	plan := BreedingPlan{BreedFraction: 0.5, Bailout: 4000}
	pool, result, err := BuildBreedingPool(rand.New(rand.NewSource(9)), plan, IndexPopulation(working), working)
	if err != nil {
		t.Fatalf("build pool: %v", err)
	}
	if pool.Len() != 10 || result.BailedOut {
		t.Fatalf("expected pool of 10, got %d (%+v)", pool.Len(), result)
	}
	if last, _ := pool.Last(); last.Fitness == 19 {
		t.Fatal("the worst member can never win a tournament")
	}
}
