package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tourney/pkg/tourney"
)

const (
	artifactsDir = "runs"
	exportsDir   = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	global := flag.NewFlagSet("tourneyctl", flag.ContinueOnError)
	logLevel := global.String("log-level", "warn", "log level: debug|info|warn|error")
	if err := global.Parse(args); err != nil {
		return err
	}
	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}
	args = global.Args()
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, logger, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "generations":
		return runGenerations(ctx, args[1:])
	case "champion":
		return runChampion(ctx, args[1:])
	case "route":
		return runRoute(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "cities":
		return runCities(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func runRun(ctx context.Context, logger *slog.Logger, args []string) error {
	defaults := defaultRunConfig()
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config path (YAML or JSON)")
	cities := fs.String("cities", defaults.Request.CitiesPath, "city list file")
	population := fs.Int("population", defaults.Request.Population, "population size")
	viable := fs.Int("viable", defaults.Request.ViableSeeds, "viable seeds to create (0 disables the viability test)")
	decimation := fs.Float64("decimation-percent", 0, "percent of ranked chromosomes culled each generation (defaults to breed percent)")
	elite := fs.Float64("elite-percent", defaults.Request.ElitePct, "percent of the working population carried into the breeding pool")
	breed := fs.Float64("breed-percent", defaults.Request.BreedPct, "breeding pool size as a percent of the working population")
	mutationRate := fs.Float64("mutation-rate", defaults.Request.MutationRate, "mutation probability per chromosome")
	mutateSurvivors := fs.Bool("mutate-survivors", false, "apply mutation trials to survivors as well as children")
	samenessLimit := fs.Int("sameness-limit", defaults.Request.SamenessLimit, "generations without change before stopping")
	generationLimit := fs.Int("generation-limit", defaults.Request.GenerationLimit, "maximum generations")
	entropyThreshold := fs.Float64("entropy-threshold", defaults.Request.EntropyThreshold, "entropy percent above which the sameness counter resets")
	operator := fs.String("operator", defaults.Request.Operator, "reproduction operator: splice|recombine")
	cross := fs.Bool("cross", false, "use single point recombination instead of splice")
	seed := fs.Int64("seed", 0, "rng seed (0 picks a time based seed)")
	outfile := fs.String("outfile", defaults.Request.OutFile, "generation table output file (empty disables)")
	fileHeaders := fs.Bool("file-headers", false, "write a header row to the generation table")
	displayEvery := fs.Int("display-every", defaults.Request.DisplayEvery, "report every Nth generation on the console")
	silent := fs.Bool("silent", false, "print a dot per generation and the final result only")
	mute := fs.Bool("mute", false, "print nothing")
	worldSilent := fs.Bool("world-silent", false, "hide the settings echo and the city table")
	storeKind := fs.String("store", defaults.StoreKind, "store backend: memory|sqlite|badger")
	dbPath := fs.String("db-path", defaults.DBPath, "sqlite database file or badger directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadRunConfig(*configPath)
	if err != nil {
		return err
	}
	err = overrideFromFlags(&cfg, setFlags, map[string]any{
		"cities":             *cities,
		"population":         *population,
		"viable":             *viable,
		"decimation-percent": *decimation,
		"elite-percent":      *elite,
		"breed-percent":      *breed,
		"mutation-rate":      *mutationRate,
		"mutate-survivors":   *mutateSurvivors,
		"sameness-limit":     *samenessLimit,
		"generation-limit":   *generationLimit,
		"entropy-threshold":  *entropyThreshold,
		"operator":           *operator,
		"cross":              *cross,
		"seed":               *seed,
		"outfile":            *outfile,
		"file-headers":       *fileHeaders,
		"display-every":      *displayEvery,
		"silent":             *silent,
		"mute":               *mute,
		"world-silent":       *worldSilent,
		"store":              *storeKind,
		"db-path":            *dbPath,
	})
	if err != nil {
		return err
	}
	if err := cfg.finalize(); err != nil {
		return err
	}

	client, err := tourney.New(tourney.Options{
		StoreKind:    cfg.StoreKind,
		DBPath:       cfg.DBPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, cfg.Request)
	if err != nil {
		return err
	}
	if !cfg.Request.Mute {
		fmt.Printf("run completed run_id=%s seed=%d generations=%d stopped_by=%s final_best=%.6f\n",
			summary.RunID, summary.Seed, summary.Generations, summary.StoppedBy, summary.FinalBest)
		fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := tourney.New(tourney.Options{StoreKind: "memory", ArtifactsDir: artifactsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, tourney.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(items)
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, item := range items {
		fmt.Printf("run_id=%s created_at=%s cities=%s count=%d pop=%d gens=%d stopped_by=%s seed=%d operator=%s final_best=%.6f champion=%.6f\n",
			item.RunID,
			item.CreatedAtUTC,
			item.CitiesPath,
			item.CityCount,
			item.Population,
			item.Generations,
			item.StoppedBy,
			item.Seed,
			item.Operator,
			item.FinalBest,
			item.ChampionFitness,
		)
	}
	return nil
}

func runGenerations(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generations", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run from the run index")
	limit := fs.Int("limit", 0, "max generations to print (0 for all)")
	jsonOut := fs.Bool("json", false, "emit generations as JSON")
	storeKind := fs.String("store", "sqlite", "store backend: memory|sqlite|badger")
	dbPath := fs.String("db-path", "tourney.db", "sqlite database file or badger directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newReadClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	generations, err := client.Generations(ctx, tourney.GenerationsRequest{
		RunRef: tourney.RunRef{RunID: *runID, Latest: *latest},
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(generations)
	}
	for _, g := range generations {
		fmt.Printf("generation=%d best=%.6f worst=%.6f average=%.6f sec=%.3f viable=%d bred=%d entropy=%.2f mutated=%d\n",
			g.Generation, g.Best, g.Worst, g.Average, g.Seconds, g.Population, g.BreedingPool, g.Entropy, g.Mutated)
	}
	return nil
}

func runChampion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("champion", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run from the run index")
	jsonOut := fs.Bool("json", false, "emit the champion as JSON")
	storeKind := fs.String("store", "sqlite", "store backend: memory|sqlite|badger")
	dbPath := fs.String("db-path", "tourney.db", "sqlite database file or badger directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newReadClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	champion, err := client.Champion(ctx, tourney.RunRef{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(champion)
	}
	fmt.Printf("run_id=%s fitness=%.6f generation=%d\nroute=%s\ngenome=%s\n",
		champion.RunID, champion.Fitness, champion.Generation, champion.Route, champion.Genome)
	return nil
}

func runRoute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("route", flag.ContinueOnError)
	cities := fs.String("cities", "input.lst", "city list file")
	encoded := fs.String("genome", "", "encoded genome")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*encoded) == "" {
		return errors.New("route requires --genome")
	}

	client, err := tourney.New(tourney.Options{StoreKind: "memory", ArtifactsDir: artifactsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Route(ctx, tourney.RouteRequest{CitiesPath: *cities, Genome: *encoded})
	if err != nil {
		return err
	}
	fmt.Printf("route=%s\nfitness=%.6f viable=%t\n", summary.Route, summary.Fitness, summary.Viable)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from the run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	storeKind := fs.String("store", "sqlite", "store backend: memory|sqlite|badger")
	dbPath := fs.String("db-path", "tourney.db", "sqlite database file or badger directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := newReadClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, tourney.ExportRequest{
		RunRef: tourney.RunRef{RunID: *runID, Latest: *latest},
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s workbook=%s\n", exported.RunID, exported.Directory, filepath.Clean(exported.Workbook))
	return nil
}

func runCities(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cities", flag.ContinueOnError)
	cities := fs.String("cities", "input.lst", "city list file")
	generate := fs.Int("generate", 0, "write N random cities to --cities instead of reading it")
	extent := fs.Float64("extent", 100, "side of the cube random cities are placed in")
	flat := fs.Bool("flat", false, "place random cities on the z=0 plane")
	seed := fs.Int64("seed", 1, "rng seed for random cities")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := tourney.New(tourney.Options{StoreKind: "memory", ArtifactsDir: artifactsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if *generate > 0 {
		list, err := client.GenerateCities(ctx, tourney.GenerateCitiesRequest{
			Path:   *cities,
			Count:  *generate,
			Extent: *extent,
			Flat:   *flat,
			Seed:   *seed,
		})
		if err != nil {
			return err
		}
		fmt.Printf("generated cities=%d to=%s\n", len(list), filepath.Clean(*cities))
		return nil
	}

	list, err := client.Cities(ctx, *cities, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("cities=%d\n", len(list))
	return nil
}

func newReadClient(storeKind, dbPath string) (*tourney.Client, error) {
	return tourney.New(tourney.Options{
		StoreKind:    storeKind,
		DBPath:       dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: tourneyctl [--log-level level] <run|runs|generations|champion|route|export|cities> [flags]", msg)
}
