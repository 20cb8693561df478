// Package report renders run progress for people (console) and for tools
// (tab separated file).
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"

	"tourney/internal/evo"
)

// Mode selects how much the console prints.
type Mode int

const (
	// ModeVerbose prints two lines per displayed generation.
	ModeVerbose Mode = iota
	// ModeSilent prints a dot per displayed generation and a one-line result.
	ModeSilent
	// ModeMute prints nothing.
	ModeMute
)

func ParseMode(silent, mute bool) Mode {
	switch {
	case mute:
		return ModeMute
	case silent:
		return ModeSilent
	default:
		return ModeVerbose
	}
}

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// Console implements evo.Reporter for terminal output.
type Console struct {
	w     io.Writer
	mode  Mode
	every int
	// worldSilent hides the settings echo and the city table.
	worldSilent bool
	color       bool
	lastBest    float64
	seenBest    bool
}

// NewConsole reports every generation divisible by every (values below 1
// mean every generation). Silent and mute modes imply world silence.
func NewConsole(w io.Writer, mode Mode, every int, worldSilent bool) *Console {
	if every < 1 {
		every = 1
	}
	c := &Console{
		w:           w,
		mode:        mode,
		every:       every,
		worldSilent: worldSilent || mode != ModeVerbose,
	}
	if f, ok := w.(*os.File); ok {
		c.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return c
}

func (c *Console) Mode() Mode {
	return c.mode
}

// ShowWorld reports whether the settings echo and city table are printed.
func (c *Console) ShowWorld() bool {
	return !c.worldSilent
}

// Settings echoes the effective configuration as key=value lines.
func (c *Console) Settings(pairs [][2]string) error {
	if c.worldSilent {
		return nil
	}
	var b strings.Builder
	b.WriteString("Read these settings from the config file and command line:\n")
	for _, kv := range pairs {
		fmt.Fprintf(&b, "\t%s=%s\n", kv[0], kv[1])
	}
	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *Console) ReportSeed(s evo.SeedReport) error {
	if c.mode != ModeVerbose {
		return nil
	}
	kind := "random"
	if s.Viable {
		kind = "viable"
	}
	_, err := fmt.Fprintf(c.w, "\nCreated %s %s chromosomes from %s candidates, %s alive. (%.3f seconds).\n",
		humanize.Comma(int64(s.Requested)), kind, humanize.Comma(int64(s.Created)),
		humanize.Comma(int64(s.Survivors)), s.Elapsed.Seconds())
	return err
}

func (c *Console) ReportGeneration(r evo.GenerationReport) error {
	improved := !c.seenBest || r.Best < c.lastBest
	if improved {
		c.lastBest, c.seenBest = r.Best, true
	}
	if r.Generation%c.every != 0 {
		return nil
	}
	switch c.mode {
	case ModeVerbose:
		head := fmt.Sprintf("#%6d:", r.Generation)
		if improved && c.color {
			head = ansiBold + head + ansiReset
		}
		_, err := fmt.Fprintf(c.w, "%s best %s, worst %s, average %s (%s).\n\tcount: %s, bred: %s, Mutated: %s, Entropy: %s%%\n",
			head, fitness(r.Best), fitness(r.Worst), fitness(r.Average), FormatHMS(r.Elapsed, true),
			humanize.Comma(int64(r.Population)), humanize.Comma(int64(r.BreedingPool)),
			humanize.Comma(int64(r.Mutated)), humanize.FormatFloat("#.##", r.Entropy))
		return err
	case ModeSilent:
		_, err := io.WriteString(c.w, ".")
		return err
	default:
		return nil
	}
}

// Summary is the end-of-run result shown to the user.
type Summary struct {
	RunID              string
	Started            time.Time
	FinalBest          float64
	FinalRoute         string
	FinalGenome        string
	Champion           float64
	ChampionRoute      string
	ChampionGenome     string
	HasChampion        bool
	Generations        int
	ChampionGeneration int
	StoppedBy          string
	Elapsed            time.Duration
}

func (c *Console) Summary(s Summary) error {
	switch c.mode {
	case ModeVerbose:
		var b strings.Builder
		b.WriteString("==========================\n\n")
		fmt.Fprintf(&b, "Final Best: %s\n\t%s\n%s\n\n", fitness(s.FinalBest), s.FinalRoute, s.FinalGenome)
		if s.HasChampion {
			fmt.Fprintf(&b, "Absolute best: %s\n\t%s\n%s\n\n", fitness(s.Champion), s.ChampionRoute, s.ChampionGenome)
		}
		fmt.Fprintf(&b, "%d generations run (stopped by %s), %d is where the best score was first found.\n\n",
			s.Generations, s.StoppedBy, s.ChampionGeneration)
		if s.RunID != "" {
			fmt.Fprintf(&b, "Run %s started %s.\n", s.RunID, strftime.Format("%Y-%m-%d %H:%M:%S", s.Started))
		}
		fmt.Fprintf(&b, "Total run time was %s.\n\n", FormatHMS(s.Elapsed, false))
		_, err := io.WriteString(c.w, b.String())
		return err
	case ModeSilent:
		_, err := fmt.Fprintf(c.w, "\nFinal Best = %s (%s)\n", fitness(s.FinalBest), FormatHMS(s.Elapsed, false))
		return err
	default:
		return nil
	}
}

// FormatHMS renders d as H:MM:SS, with milliseconds when fractional is set.
func FormatHMS(d time.Duration, fractional bool) string {
	if d < 0 {
		d = 0
	}
	h := int64(d / time.Hour)
	m := int64(d%time.Hour) / int64(time.Minute)
	if fractional {
		s := float64(d%time.Minute) / float64(time.Second)
		return fmt.Sprintf("%d:%02d:%06.3f", h, m, s)
	}
	s := int64(d%time.Minute) / int64(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

func fitness(v float64) string {
	return humanize.FormatFloat("#,###.####", v)
}
