package stats

import (
	"math"

	"tourney/internal/model"
)

// RunSummary describes how the best fitness moved over a run. Fitness is
// minimised, so Improvement is InitialBest - FinalBest.
type RunSummary struct {
	Generations    int     `json:"generations"`
	InitialBest    float64 `json:"initial_best"`
	FinalBest      float64 `json:"final_best"`
	BestMean       float64 `json:"best_mean"`
	BestStd        float64 `json:"best_std"`
	BestMin        float64 `json:"best_min"`
	BestMax        float64 `json:"best_max"`
	Improvement    float64 `json:"improvement"`
	MeanEntropy    float64 `json:"mean_entropy"`
	TotalMutations int     `json:"total_mutations"`
	TotalSeconds   float64 `json:"total_seconds"`
}

func Summarize(generations []model.GenerationRecord) RunSummary {
	if len(generations) == 0 {
		return RunSummary{}
	}
	summary := RunSummary{
		Generations: len(generations),
		InitialBest: generations[0].Best,
		FinalBest:   generations[len(generations)-1].Best,
		BestMin:     math.Inf(1),
		BestMax:     math.Inf(-1),
	}
	var sum, entropy float64
	for _, g := range generations {
		sum += g.Best
		entropy += g.Entropy
		summary.BestMin = math.Min(summary.BestMin, g.Best)
		summary.BestMax = math.Max(summary.BestMax, g.Best)
		summary.TotalMutations += g.Mutated
		summary.TotalSeconds += g.Seconds
	}
	n := float64(len(generations))
	summary.BestMean = sum / n
	summary.MeanEntropy = entropy / n

	var variance float64
	for _, g := range generations {
		d := g.Best - summary.BestMean
		variance += d * d
	}
	summary.BestStd = math.Sqrt(variance / n)
	summary.Improvement = summary.InitialBest - summary.FinalBest
	return summary
}
