// Command gauntlet stress tests the segmented deque against a plain slice
// with seeded random operations.
package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/wenzhang-dev/segdeque/gauntlet"
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	os.Exit(run(cfg, os.Stdout))
}

// nextSeed derives the seed of the following run from the previous one, so a
// whole sequence of runs is reproducible from the first seed
func nextSeed(seed int64) int64 {
	return rand.New(rand.NewSource(seed)).Int63()
}

func run(cfg *Config, out io.Writer) int {
	logger, closer, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer closer.Close()

	fmt.Fprintln(out, "===== Deque Gauntlet Test Driver =====")

	if cfg.Replay != "" {
		fmt.Fprintf(out, "Replaying trace %s\n", cfg.Replay)
		report, err := gauntlet.Replay(cfg.Replay, logger)
		return finish(out, report, err, logger)
	}

	seed := cfg.Seed
	for i := 0; i < cfg.Runs; i++ {
		if i > 0 && !cfg.Reproduce {
			seed = nextSeed(seed)
		}

		fmt.Fprintf(out, "\n[Deque Gauntlet] Starting with %d operations (seed = %d)...\n", cfg.Steps, seed)
		report, err := gauntlet.Run(&gauntlet.Config{
			Seed:          seed,
			Steps:         cfg.Steps,
			DirectorySize: cfg.DirectorySize,
			TraceDir:      cfg.TraceDir,
			Logger:        logger,
		})
		if code := finish(out, report, err, logger); code != 0 {
			if cfg.TraceDir != "" {
				fmt.Fprintf(out, "Trace kept at %s\n", gauntlet.TracePath(cfg.TraceDir, seed))
			}
			return code
		}
	}

	return 0
}

func finish(out io.Writer, report *gauntlet.Report, err error, logger *zerolog.Logger) int {
	if err != nil {
		logger.Err(err).Msg("gauntlet failed")
		fmt.Fprintf(out, "[Deque Gauntlet] FAILED: %v\n", err)
		return 1
	}

	printReport(out, report)
	if !report.Passed() {
		return 1
	}

	fmt.Fprintln(out, "[Deque Gauntlet] All tests passed successfully!")
	return 0
}

func printReport(out io.Writer, r *gauntlet.Report) {
	fmt.Fprintln(out, "[Deque Gauntlet] Test complete!")
	fmt.Fprintf(out, "  Final size: %d (skipped %d of %d steps)\n", r.Size, r.Skipped, r.Steps)

	if r.Size == 0 {
		fmt.Fprintln(out, "  Deque is empty.")
	} else {
		fmt.Fprintf(out, "  Front: %d\n", r.Front)
		fmt.Fprintf(out, "  Back : %d\n", r.Back)
		fmt.Fprintf(out, "  First %d elements: %v\n", len(r.Head), r.Head)
		fmt.Fprintf(out, "  Last %d elements : %v\n", len(r.Tail), r.Tail)

		fmt.Fprintln(out, "\n[Validation Samples from Deque vs reference]")
		for _, s := range r.Samples {
			verdict := "GO"
			if !s.Match() {
				verdict = "NO-GO"
			}
			fmt.Fprintf(out, "  Index %d: Deque = %d, reference = %d %s\n", s.Index, s.Deque, s.Reference, verdict)
		}
	}

	fmt.Fprintf(out, "  Blocks: live %d, allocated %d, freed %d\n",
		r.Stats.Blocks, r.Stats.BlockAllocs, r.Stats.BlockFrees)
	fmt.Fprintf(out, "  Directory: %d slots, grown %d times\n",
		r.Stats.DirectorySize, r.Stats.DirectoryGrowths)
	fmt.Fprintf(out, "  Fingerprint: %016x\n", r.Fingerprint)
}
