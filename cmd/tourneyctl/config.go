package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"tourney/pkg/tourney"
)

// runConfig is the resolved input of the run command.
type runConfig struct {
	Request   tourney.RunRequest
	StoreKind string
	DBPath    string
	// decimationSet records whether a decimation percent was given; it
	// defaults to the breed percent otherwise.
	decimationSet bool
}

// configAliases maps the historical option names onto canonical keys.
var configAliases = map[string]string{
	"c_count":      "population",
	"v_count":      "viable",
	"d_percent":    "decimation_percent",
	"save_percent": "elite_percent",
	"b_percent":    "breed_percent",
	"mutations":    "mutation_rate",
	"samelimit":    "sameness_limit",
	"genlimit":     "generation_limit",
	"e_threshold":  "entropy_threshold",
	"infile":       "cities",
	"g_mod":        "display_every",
	"store_kind":   "store",
}

func defaultRunConfig() runConfig {
	return runConfig{
		Request: tourney.RunRequest{
			CitiesPath:       "input.lst",
			Population:       100000,
			ViableSeeds:      2,
			MutationRate:     0.000001,
			SamenessLimit:    50,
			GenerationLimit:  1000,
			EntropyThreshold: 95,
			Operator:         "splice",
			OutFile:          "tourney.out",
			DisplayEvery:     1,
		},
		StoreKind: "sqlite",
		DBPath:    "tourney.db",
	}
}

func canonicalKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.TrimLeft(key, "-")
	key = strings.ReplaceAll(key, "-", "_")
	if alias, ok := configAliases[key]; ok {
		return alias
	}
	return key
}

// loadRunConfig reads a YAML (or JSON) document of run options on top of
// the defaults.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return runConfig{}, fmt.Errorf("load config: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return runConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.apply(raw); err != nil {
		return runConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// apply sets every recognised key of raw. Unrecognised keys are ignored.
func (c *runConfig) apply(raw map[string]any) error {
	var cross, splice *bool
	for key, value := range raw {
		var err error
		req := &c.Request
		switch canonicalKey(key) {
		case "population":
			req.Population, err = cast.ToIntE(value)
		case "viable":
			req.ViableSeeds, err = cast.ToIntE(value)
		case "decimation_percent":
			req.DecimationPct, err = cast.ToFloat64E(value)
			c.decimationSet = true
		case "elite_percent":
			req.ElitePct, err = cast.ToFloat64E(value)
		case "breed_percent":
			req.BreedPct, err = cast.ToFloat64E(value)
		case "mutation_rate":
			req.MutationRate, err = cast.ToFloat64E(value)
		case "mutate_survivors":
			req.MutateSurvivors, err = cast.ToBoolE(value)
		case "sameness_limit":
			req.SamenessLimit, err = cast.ToIntE(value)
		case "generation_limit":
			req.GenerationLimit, err = cast.ToIntE(value)
		case "entropy_threshold":
			req.EntropyThreshold, err = cast.ToFloat64E(value)
		case "operator":
			req.Operator, err = cast.ToStringE(value)
		case "cross":
			var b bool
			b, err = cast.ToBoolE(value)
			cross = &b
		case "splice":
			var b bool
			b, err = cast.ToBoolE(value)
			splice = &b
		case "seed":
			req.Seed, err = cast.ToInt64E(value)
		case "cities":
			req.CitiesPath, err = cast.ToStringE(value)
		case "outfile":
			req.OutFile, err = cast.ToStringE(value)
		case "file_headers":
			req.FileHeaders, err = cast.ToBoolE(value)
		case "display_every":
			req.DisplayEvery, err = cast.ToIntE(value)
		case "silent":
			req.Silent, err = cast.ToBoolE(value)
		case "mute":
			req.Mute, err = cast.ToBoolE(value)
		case "world_silent":
			req.WorldSilent, err = cast.ToBoolE(value)
		case "store":
			c.StoreKind, err = cast.ToStringE(value)
		case "db_path":
			c.DBPath, err = cast.ToStringE(value)
		}
		if err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
	}
	switch {
	case splice != nil && *splice:
		c.Request.Operator = "splice"
	case cross != nil && *cross:
		c.Request.Operator = "recombine"
	}
	return nil
}

// overrideFromFlags applies the flags the user set explicitly on top of the
// file values.
func overrideFromFlags(c *runConfig, set map[string]bool, flagValue map[string]any) error {
	raw := make(map[string]any, len(set))
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		raw[name] = v
	}
	return c.apply(raw)
}

// finalize fills derived defaults and checks the options the engine does
// not see.
func (c *runConfig) finalize() error {
	if !c.decimationSet {
		c.Request.DecimationPct = c.Request.BreedPct
	}
	if c.Request.BreedPct <= 0 {
		return fmt.Errorf("breed percent must be > 0, got %v", c.Request.BreedPct)
	}
	for name, pct := range map[string]float64{
		"decimation": c.Request.DecimationPct,
		"elite":      c.Request.ElitePct,
		"breed":      c.Request.BreedPct,
	} {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%s percent must be in [0,100], got %v", name, pct)
		}
	}
	if c.Request.Mute {
		c.Request.Silent = true
	}
	if c.Request.Silent {
		c.Request.WorldSilent = true
	}
	return nil
}
