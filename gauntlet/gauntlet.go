// Package gauntlet runs a segdeque.Deque against a plain slice under a
// seeded random workload and reports the first divergence. Runs can be
// recorded to a trace file and replayed later.
package gauntlet

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/wenzhang-dev/segdeque"
)

var ErrInvalidConfig = errors.New("invalid gauntlet config")

type Config struct {
	Seed  int64
	Steps int

	// zero means segdeque.DefaultDirectorySize
	DirectorySize int

	// empty disables tracing
	TraceDir string

	Logger *zerolog.Logger
}

func (c *Config) Validate() error {
	if c.Steps <= 0 {
		return ErrInvalidConfig
	}

	if c.DirectorySize != 0 && c.DirectorySize < segdeque.MinDirectorySize {
		return ErrInvalidConfig
	}

	return nil
}

func (c *Config) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	nop := zerolog.Nop()
	return &nop
}

// Run generates cfg.Steps steps from cfg.Seed and checks the deque against
// the reference after each one.
func Run(cfg *Config) (report *Report, err error) {
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger()
	logger.Info().Int64("seed", cfg.Seed).Int("steps", cfg.Steps).Msg("gauntlet start")

	var trace *TraceWriter
	if cfg.TraceDir != "" {
		trace, err = NewTraceWriter(cfg.TraceDir, TraceHeader{
			Seed:          cfg.Seed,
			DirectorySize: cfg.DirectorySize,
			Created:       time.Now().Unix(),
		})
		if err != nil {
			logger.Err(err).Str("dir", cfg.TraceDir).Msg("failed to open trace")
			return nil, err
		}

		defer func() {
			err = errors.Join(err, trace.Close())
		}()
	}

	runner, err := NewRunner(&RunnerOptions{
		DirectorySize: cfg.DirectorySize,
		Trace:         trace,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	gen := NewGenerator(cfg.Seed)
	for i := 0; i < cfg.Steps; i++ {
		step := gen.Next()
		if err = runner.Apply(step); err != nil {
			logger.Err(err).Int("step", i+1).Stringer("op", step).Msg("gauntlet diverged")
			return nil, err
		}
	}

	if report, err = runner.Report(cfg.Seed); err != nil {
		logger.Err(err).Msg("final state diverged")
		return nil, err
	}

	logger.Info().
		Int("size", report.Size).
		Int("blocks", report.Stats.Blocks).
		Uint64("growths", report.Stats.DirectoryGrowths).
		Uint64("fingerprint", report.Fingerprint).
		Msg("gauntlet done")

	return report, nil
}

// Replay re-runs the steps of a trace file on a fresh deque
func Replay(path string, logger *zerolog.Logger) (*Report, error) {
	header, steps, err := ReadTrace(path)
	if err != nil {
		return nil, err
	}

	runner, err := NewRunner(&RunnerOptions{
		DirectorySize: header.DirectorySize,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	if err = runner.ApplyAll(steps); err != nil {
		return nil, err
	}

	return runner.Report(header.Seed)
}
