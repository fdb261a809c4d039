package main

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wenzhang-dev/segdeque"
)

const (
	StepsKey         = "steps"
	SeedKey          = "seed"
	RunsKey          = "runs"
	ReproduceKey     = "reproduce"
	DirectorySizeKey = "directory-size"
	TraceDirKey      = "trace-dir"
	ReplayKey        = "replay"
	LogDirKey        = "log-dir"
	LogFileKey       = "log-file"
	LogLevelKey      = "log-level"
	LogMaxSizeKey    = "log-max-size"
	LogMaxBackupsKey = "log-max-backups"

	envPrefix = "gauntlet"
)

type Config struct {
	Steps         int
	Seed          int64
	Runs          int
	Reproduce     bool
	DirectorySize int
	TraceDir      string
	Replay        string

	LogDir        string
	LogFile       string
	LogLevel      string
	LogMaxSize    int
	LogMaxBackups int
}

func buildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("gauntlet", pflag.ContinueOnError)

	fs.Int(StepsKey, 10000, "Number of random operations per run")
	fs.Int64(SeedKey, time.Now().Unix(), "Seed of the first run")
	fs.Int(RunsKey, 1, "Number of runs")
	fs.Bool(ReproduceKey, false, "Reuse the previous seed for every following run")
	fs.Int(DirectorySizeKey, segdeque.DefaultDirectorySize, "Initial directory size of the deque")
	fs.String(TraceDirKey, "", "Record every run into this directory")
	fs.String(ReplayKey, "", "Replay a recorded trace file instead of generating operations")
	fs.String(LogDirKey, "", "Write rotated logs into this directory instead of stderr")
	fs.String(LogFileKey, "gauntlet.log", "Log file name inside the log directory")
	fs.String(LogLevelKey, "info", "Log level")
	fs.Int(LogMaxSizeKey, 64, "Maximum log file size in megabytes before rotation")
	fs.Int(LogMaxBackupsKey, 4, "Maximum number of rotated log files")

	return fs
}

// parseConfig reads the flags, every flag can also be set from the
// environment, e.g. GAUNTLET_STEPS
func parseConfig(args []string) (*Config, error) {
	fs := buildFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	return &Config{
		Steps:         v.GetInt(StepsKey),
		Seed:          v.GetInt64(SeedKey),
		Runs:          v.GetInt(RunsKey),
		Reproduce:     v.GetBool(ReproduceKey),
		DirectorySize: v.GetInt(DirectorySizeKey),
		TraceDir:      v.GetString(TraceDirKey),
		Replay:        v.GetString(ReplayKey),
		LogDir:        v.GetString(LogDirKey),
		LogFile:       v.GetString(LogFileKey),
		LogLevel:      v.GetString(LogLevelKey),
		LogMaxSize:    v.GetInt(LogMaxSizeKey),
		LogMaxBackups: v.GetInt(LogMaxBackupsKey),
	}, nil
}
