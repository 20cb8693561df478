package evo

import (
	"fmt"
	"math"
)

// DefaultBailoutFactor multiplies the population size to bound tournament
// attempts per generation.
const DefaultBailoutFactor = 200

// Config holds the run policy. Fractions are in [0,1]; EntropyThreshold is a
// percentage.
type Config struct {
	PopulationSize int
	// ViableSeeds is the number of viable seeds to create. Zero seeds
	// PopulationSize random genomes without a viability test.
	ViableSeeds        int
	GenomeLength       int
	DecimationFraction float64
	EliteFraction      float64
	BreedFraction      float64
	MutationRate       float64
	// MutateSurvivors extends mutation trials from new children to the
	// carried-over survivors as well.
	MutateSurvivors  bool
	SamenessLimit    int
	GenerationLimit  int
	EntropyThreshold float64
	Operator         Operator
	// Seed for the random source. Zero selects a time-based seed.
	Seed          int64
	BailoutFactor int
}

func (c Config) Validate() error {
	switch {
	case c.PopulationSize <= 0:
		return fmt.Errorf("%w: population size must be > 0", ErrConfig)
	case c.ViableSeeds < 0:
		return fmt.Errorf("%w: viable seed count must be >= 0", ErrConfig)
	case c.GenomeLength <= 0:
		return fmt.Errorf("%w: genome length must be > 0", ErrConfig)
	case !inRange(c.DecimationFraction, 0, 1) || c.DecimationFraction == 1:
		return fmt.Errorf("%w: decimation must be in [0,1), got %v", ErrConfig, c.DecimationFraction)
	case !inRange(c.EliteFraction, 0, 1):
		return fmt.Errorf("%w: elite fraction must be in [0,1], got %v", ErrConfig, c.EliteFraction)
	case c.BreedFraction <= 0 || !inRange(c.BreedFraction, 0, 1):
		return fmt.Errorf("%w: breed fraction must be in (0,1], got %v", ErrConfig, c.BreedFraction)
	case !inRange(c.MutationRate, 0, 1):
		return fmt.Errorf("%w: mutation rate must be in [0,1], got %v", ErrConfig, c.MutationRate)
	case c.SamenessLimit <= 0:
		return fmt.Errorf("%w: sameness limit must be > 0", ErrConfig)
	case c.GenerationLimit <= 0:
		return fmt.Errorf("%w: generation limit must be > 0", ErrConfig)
	case !inRange(c.EntropyThreshold, 0, 100):
		return fmt.Errorf("%w: entropy threshold must be in [0,100], got %v", ErrConfig, c.EntropyThreshold)
	case c.BailoutFactor < 0:
		return fmt.Errorf("%w: bailout factor must be >= 0", ErrConfig)
	}
	if _, err := ParseOperator(string(c.Operator)); err != nil {
		return err
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Operator == "" {
		c.Operator = OperatorSplice
	}
	if c.BailoutFactor == 0 {
		c.BailoutFactor = DefaultBailoutFactor
	}
	return c
}

func (c Config) survivalFraction() float64 {
	return 1 - c.DecimationFraction
}

func (c Config) breedingPlan() BreedingPlan {
	return BreedingPlan{
		EliteFraction: c.EliteFraction,
		BreedFraction: c.BreedFraction,
		Bailout:       c.PopulationSize * c.BailoutFactor,
	}
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
