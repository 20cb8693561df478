package stats

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	generationsSheet = "generations"
	summarySheet     = "summary"
)

// ExportWorkbook writes the generation table and a run summary sheet to an
// xlsx file at path.
func ExportWorkbook(path string, artifacts RunArtifacts) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", generationsSheet); err != nil {
		return err
	}
	header := []any{"generation", "best", "worst", "average", "sec", "viable", "bred", "entropy", "mutated"}
	if err := f.SetSheetRow(generationsSheet, "A1", &header); err != nil {
		return err
	}
	for i, g := range artifacts.Generations {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{g.Generation, g.Best, g.Worst, g.Average, g.Seconds, g.Population, g.BreedingPool, g.Entropy, g.Mutated}
		if err := f.SetSheetRow(generationsSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	run := artifacts.Run
	rows := [][2]any{
		{"run_id", run.ID},
		{"created_at_utc", FormatCreatedAt(run.CreatedAt)},
		{"cities", run.CitiesPath},
		{"city_count", run.CityCount},
		{"population", run.Config.Population},
		{"operator", run.Config.Operator},
		{"seed", run.Config.Seed},
		{"generations", run.Generations},
		{"stopped_by", run.StoppedBy},
		{"final_best", run.FinalBest},
		{"final_route", run.FinalRoute},
		{"final_genome", run.FinalGenome},
		{"initial_best", artifacts.Summary.InitialBest},
		{"improvement", artifacts.Summary.Improvement},
		{"best_mean", artifacts.Summary.BestMean},
		{"best_std", artifacts.Summary.BestStd},
		{"mean_entropy", artifacts.Summary.MeanEntropy},
		{"total_mutations", artifacts.Summary.TotalMutations},
	}
	if c := artifacts.Champion; c != nil {
		rows = append(rows,
			[2]any{"champion_fitness", c.Fitness},
			[2]any{"champion_generation", c.Generation},
			[2]any{"champion_route", c.Route},
			[2]any{"champion_genome", c.Genome},
		)
	}
	for i, kv := range rows {
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), kv[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), kv[1]); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 22); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
