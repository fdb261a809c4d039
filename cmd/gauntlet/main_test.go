package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenzhang-dev/segdeque"
	"github.com/wenzhang-dev/segdeque/gauntlet"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	require.Nil(t, err)

	assert.Equal(t, 10000, cfg.Steps)
	assert.Equal(t, 1, cfg.Runs)
	assert.Equal(t, segdeque.DefaultDirectorySize, cfg.DirectorySize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotZero(t, cfg.Seed)
}

func TestParseConfigFlagsAndEnv(t *testing.T) {
	t.Setenv("GAUNTLET_LOG_LEVEL", "debug")

	cfg, err := parseConfig([]string{"--steps=42", "--seed=-7", "--runs", "3", "--reproduce"})
	require.Nil(t, err)

	assert.Equal(t, 42, cfg.Steps)
	assert.Equal(t, int64(-7), cfg.Seed)
	assert.Equal(t, 3, cfg.Runs)
	assert.True(t, cfg.Reproduce)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = parseConfig([]string{"--no-such-flag"})
	assert.NotNil(t, err)
}

func testConfig(t *testing.T) *Config {
	cfg, err := parseConfig([]string{"--seed=11", "--steps=2000", "--log-dir", t.TempDir()})
	require.Nil(t, err)
	return cfg
}

func TestRunPasses(t *testing.T) {
	cfg := testConfig(t)
	cfg.Runs = 3

	var out bytes.Buffer
	assert.Equal(t, 0, run(cfg, &out))

	assert.Contains(t, out.String(), "seed = 11")
	assert.Contains(t, out.String(), "All tests passed successfully!")
	assert.NotContains(t, out.String(), "NO-GO")
	assert.Contains(t, out.String(), "seed = "+itoa(nextSeed(11)))

	assert.FileExists(t, filepath.Join(cfg.LogDir, cfg.LogFile))
}

func TestRunReproduce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Runs = 2
	cfg.Reproduce = true

	var out bytes.Buffer
	assert.Equal(t, 0, run(cfg, &out))
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("seed = 11)")))
}

func TestRunTraceAndReplay(t *testing.T) {
	cfg := testConfig(t)
	cfg.TraceDir = t.TempDir()

	var out bytes.Buffer
	require.Equal(t, 0, run(cfg, &out))

	path := gauntlet.TracePath(cfg.TraceDir, 11)
	_, err := os.Stat(path)
	require.Nil(t, err)

	replayCfg := testConfig(t)
	replayCfg.Replay = path

	var replayed bytes.Buffer
	assert.Equal(t, 0, run(replayCfg, &replayed))
	assert.Contains(t, replayed.String(), "All tests passed successfully!")
}

func TestRunBadReplay(t *testing.T) {
	cfg := testConfig(t)
	cfg.Replay = filepath.Join(t.TempDir(), "missing.trace")

	var out bytes.Buffer
	assert.Equal(t, 1, run(cfg, &out))
	assert.Contains(t, out.String(), "FAILED")
}

func TestRunBadLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogLevel = "loud"

	var out bytes.Buffer
	assert.Equal(t, 2, run(cfg, &out))
}

func TestNextSeed(t *testing.T) {
	assert.Equal(t, nextSeed(5), nextSeed(5))
	assert.NotEqual(t, nextSeed(5), nextSeed(6))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
