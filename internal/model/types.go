package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunConfig is the policy a run was started with. Percentages are kept as
// the user supplied them.
type RunConfig struct {
	Population       int     `json:"population"`
	ViableSeeds      int     `json:"viable_seeds"`
	DecimationPct    float64 `json:"decimation_percent"`
	ElitePct         float64 `json:"elite_percent"`
	BreedPct         float64 `json:"breed_percent"`
	MutationRate     float64 `json:"mutation_rate"`
	MutateSurvivors  bool    `json:"mutate_survivors,omitempty"`
	SamenessLimit    int     `json:"sameness_limit"`
	GenerationLimit  int     `json:"generation_limit"`
	EntropyThreshold float64 `json:"entropy_threshold"`
	Operator         string  `json:"operator"`
	Seed             int64   `json:"seed"`
}

type RunRecord struct {
	VersionedRecord
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	CitiesPath     string    `json:"cities_path"`
	CityCount      int       `json:"city_count"`
	Config         RunConfig `json:"config"`
	Generations    int       `json:"generations"`
	StoppedBy      string    `json:"stopped_by"`
	FinalBest      float64   `json:"final_best"`
	FinalGenome    string    `json:"final_genome"`
	FinalRoute     string    `json:"final_route"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
}

// GenerationRecord is one row of a run's per-generation table.
type GenerationRecord struct {
	Generation   int     `json:"generation"`
	Best         float64 `json:"best"`
	Worst        float64 `json:"worst"`
	Average      float64 `json:"average"`
	Seconds      float64 `json:"sec"`
	Population   int     `json:"viable"`
	BreedingPool int     `json:"bred"`
	Entropy      float64 `json:"entropy"`
	Mutated      int     `json:"mutated"`
}

// ChampionRecord is the best-ever chromosome of a run.
type ChampionRecord struct {
	VersionedRecord
	RunID      string  `json:"run_id"`
	Fitness    float64 `json:"fitness"`
	Generation int     `json:"generation"`
	Genome     string  `json:"genome"`
	Route      string  `json:"route"`
}
