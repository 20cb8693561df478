package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"tourney/internal/genome"
)

// championSentinel is the initial champion fitness; any real score beats it.
const championSentinel = 1.0e30

// Engine runs the generational loop. It is single threaded and owns its
// population, index and breeding pool for the duration of Run.
type Engine[G genome.Gene] struct {
	cfg       Config
	evaluator Evaluator[G]
	reporters []Reporter
	logger    *slog.Logger
	seed      int64
	rng       *rand.Rand
}

func NewEngine[G genome.Gene](cfg Config, evaluator Evaluator[G], logger *slog.Logger, reporters ...Reporter) (*Engine[G], error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator is required", ErrConfig)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine[G]{
		cfg:       cfg,
		evaluator: evaluator,
		reporters: reporters,
		logger:    logger,
		seed:      seed,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Seed returns the seed actually used by the random source.
func (e *Engine[G]) Seed() int64 {
	return e.seed
}

func (e *Engine[G]) Config() Config {
	return e.cfg
}

// runState carries the per-run counters between generations.
type runState[G genome.Gene] struct {
	generation   int
	sameness     int
	remaining    int
	currentBest  float64
	champion     Chromosome[G]
	championGen  int
	championSeen bool
	population   Population[G]
	index        *Index[G]
}

// proceed decrements sameness then the generation budget, stopping when
// either was already exhausted.
func (s *runState[G]) proceed() (bool, StopReason) {
	if s.sameness <= 0 {
		return false, StopSameness
	}
	s.sameness--
	if s.remaining <= 0 {
		return false, StopGenerationLimit
	}
	s.remaining--
	return true, ""
}

// Run seeds a population and evolves it until the sameness counter or the
// generation limit runs out.
func (e *Engine[G]) Run(ctx context.Context) (Result[G], error) {
	started := time.Now()
	population, err := e.seedPopulation(ctx)
	if err != nil {
		return Result[G]{}, err
	}

	state := &runState[G]{
		sameness:   e.cfg.SamenessLimit,
		remaining:  e.cfg.GenerationLimit,
		champion:   Chromosome[G]{Fitness: championSentinel},
		population: population,
		index:      IndexPopulation(population),
	}
	reports := make([]GenerationReport, 0, min(e.cfg.GenerationLimit, 1024))

	var reason StopReason
	for {
		var ok bool
		if ok, reason = state.proceed(); !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return Result[G]{}, err
		}
		report, err := e.step(state)
		if err != nil {
			return Result[G]{}, err
		}
		reports = append(reports, report)
		for _, r := range e.reporters {
			if err := r.ReportGeneration(report); err != nil {
				return Result[G]{}, fmt.Errorf("report generation %d: %w", report.Generation, err)
			}
		}
		e.checkConvergence(state, report)
	}

	final, _ := state.index.First()
	result := Result[G]{
		Seed:        e.seed,
		Generations: state.generation,
		StoppedBy:   reason,
		Final:       final,
		Reports:     reports,
		Elapsed:     time.Since(started),
	}
	if state.championSeen {
		result.Champion = state.champion
		result.ChampionGeneration = state.championGen
	}
	e.logger.Info("run finished",
		"generations", state.generation,
		"stopped_by", string(reason),
		"final_best", final.Fitness,
		"champion", result.Champion.Fitness,
		"champion_generation", result.ChampionGeneration,
	)
	return result, nil
}

// seedPopulation creates the first generation. With ViableSeeds == 0 it
// creates PopulationSize random genomes; otherwise it keeps drawing until
// ViableSeeds of them score non-negative. Either way the seeds are then
// scored and the non-viable ones dropped.
func (e *Engine[G]) seedPopulation(ctx context.Context) (Population[G], error) {
	started := time.Now()
	target := e.cfg.ViableSeeds
	viabilityTest := target > 0
	if !viabilityTest {
		target = e.cfg.PopulationSize
	}

	population := make(Population[G], 0, max(target, e.cfg.PopulationSize))
	created := 0
	for len(population) < target {
		if created%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		created++
		candidate := Chromosome[G]{Genome: genome.Random[G](e.rng, e.cfg.GenomeLength)}
		if viabilityTest {
			fitness, err := e.evaluator.Score(candidate.Genome)
			if err != nil {
				return nil, &GenerationError{Generation: 0, Op: "evaluate", Err: err}
			}
			if fitness < 0 {
				continue
			}
			candidate.Fitness = fitness
		}
		population = append(population, candidate)
	}

	population, err := evaluate(e.evaluator, population)
	if err != nil {
		return nil, &GenerationError{Generation: 0, Op: "evaluate", Err: err}
	}
	report := SeedReport{
		Requested: target,
		Viable:    viabilityTest,
		Created:   created,
		Survivors: len(population),
		Elapsed:   time.Since(started),
	}
	e.logger.Info("population seeded",
		"requested", report.Requested,
		"viable_test", report.Viable,
		"created", report.Created,
		"survivors", report.Survivors,
		"elapsed", report.Elapsed,
	)
	for _, r := range e.reporters {
		if err := r.ReportSeed(report); err != nil {
			return nil, fmt.Errorf("report seed: %w", err)
		}
	}
	if len(population) == 0 {
		return nil, fmt.Errorf("seeding: %w", ErrExtinct)
	}
	return population, nil
}

// step runs one generation: cull, breed, reproduce, mutate, reevaluate.
func (e *Engine[G]) step(state *runState[G]) (GenerationReport, error) {
	started := time.Now()
	next := state.generation + 1
	ranked := state.index

	keep := int(math.Ceil(float64(ranked.Len()) * e.cfg.survivalFraction()))
	working := make(Population[G], 0, max(e.cfg.PopulationSize, keep))
	for _, survivor := range ranked.Ascending(keep) {
		working = append(working, survivor.Clone())
	}
	survivors := len(working)

	pool, poolResult, err := BuildBreedingPool(e.rng, e.cfg.breedingPlan(), ranked, working)
	if err != nil {
		return GenerationReport{}, &GenerationError{Generation: next, Op: "select", Err: err}
	}
	if poolResult.BailedOut {
		e.logger.Debug("breeding pool bailout",
			"generation", next,
			"pool", pool.Len(),
			"target", poolResult.Target,
			"attempts", poolResult.Attempts,
		)
	}

	working, _, err = reproduce(e.rng, e.cfg.Operator, pool, working, e.cfg.PopulationSize)
	if err != nil {
		return GenerationReport{}, &GenerationError{Generation: next, Op: string(e.cfg.Operator), Err: err}
	}

	from := survivors
	if e.cfg.MutateSurvivors {
		from = 0
	}
	mutated, err := e.mutate(working[from:])
	if err != nil {
		return GenerationReport{}, &GenerationError{Generation: next, Op: "mutate", Err: err}
	}

	working, err = evaluate(e.evaluator, working)
	if err != nil {
		return GenerationReport{}, &GenerationError{Generation: next, Op: "evaluate", Err: err}
	}
	index := IndexPopulation(working)
	entropy, err := Entropy(index, working)
	if err != nil {
		return GenerationReport{}, &GenerationError{Generation: next, Op: "evaluate", Err: err}
	}

	state.generation = next
	state.population = working
	state.index = index

	best, _ := index.First()
	worst, _ := index.Last()
	return GenerationReport{
		Generation:   next,
		Best:         best.Fitness,
		Worst:        worst.Fitness,
		Average:      (best.Fitness + worst.Fitness) / 2,
		Elapsed:      time.Since(started),
		Population:   len(working),
		BreedingPool: pool.Len(),
		Entropy:      entropy,
		Mutated:      mutated,
	}, nil
}

// mutate runs one Bernoulli trial per member and rewrites one random gene on
// success.
func (e *Engine[G]) mutate(members Population[G]) (int, error) {
	mutated := 0
	for i := range members {
		if e.rng.Float64() >= e.cfg.MutationRate {
			continue
		}
		if _, err := members[i].Genome.MutateRandom(e.rng); err != nil {
			return mutated, err
		}
		mutated++
	}
	return mutated, nil
}

// checkConvergence resets the sameness countdown when the best fitness moved
// or diversity is still above the entropy threshold, and tracks the champion.
func (e *Engine[G]) checkConvergence(state *runState[G], report GenerationReport) {
	if report.Best != state.currentBest {
		state.currentBest = report.Best
		if state.champion.Fitness > state.currentBest {
			best, _ := state.index.First()
			state.champion = best.Clone()
			state.championGen = report.Generation
			state.championSeen = true
			e.logger.Debug("new champion", "generation", report.Generation, "fitness", best.Fitness)
		}
		state.sameness = e.cfg.SamenessLimit
	}
	if report.Entropy > e.cfg.EntropyThreshold {
		state.sameness = e.cfg.SamenessLimit
	}
}
