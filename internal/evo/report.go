package evo

import (
	"time"

	"tourney/internal/genome"
)

// GenerationReport is emitted once per completed generation, in order.
type GenerationReport struct {
	Generation   int           `json:"generation"`
	Best         float64       `json:"best"`
	Worst        float64       `json:"worst"`
	Average      float64       `json:"average"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	Population   int           `json:"population"`
	BreedingPool int           `json:"breeding_pool"`
	Entropy      float64       `json:"entropy"`
	Mutated      int           `json:"mutated"`
}

// Seconds is the elapsed generation time in seconds.
func (r GenerationReport) Seconds() float64 {
	return r.Elapsed.Seconds()
}

type SeedReport struct {
	Requested int
	Viable    bool
	Created   int
	Survivors int
	Elapsed   time.Duration
}

// Reporter receives run progress. Errors from a reporter abort the run.
type Reporter interface {
	ReportSeed(SeedReport) error
	ReportGeneration(GenerationReport) error
}

// StopReason names the counter that ended a run.
type StopReason string

const (
	StopSameness        StopReason = "sameness"
	StopGenerationLimit StopReason = "generation_limit"
)

// Result summarises a finished run.
type Result[G genome.Gene] struct {
	Seed        int64
	Generations int
	StoppedBy   StopReason
	// Final is the best chromosome of the last generation.
	Final Chromosome[G]
	// Champion is the best chromosome seen across the run and the generation
	// where it first appeared. Champion.Genome is nil when no generation ever
	// improved on the initial reference.
	Champion           Chromosome[G]
	ChampionGeneration int
	Reports            []GenerationReport
	Elapsed            time.Duration
}
