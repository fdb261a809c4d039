package gauntlet

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceWriteRead(t *testing.T) {
	dir := t.TempDir()

	tw, err := NewTraceWriter(dir, TraceHeader{Seed: -3, DirectorySize: 4, Created: 1700000000})
	require.Nil(t, err)

	steps := NewGenerator(-3).Steps(500)
	for _, step := range steps {
		require.Nil(t, tw.Write(step))
	}
	assert.Equal(t, 500, tw.Steps())
	require.Nil(t, tw.Close())

	assert.Equal(t, TracePath(dir, -3), tw.Path())
	assert.True(t, PathExists(tw.Path()))

	header, read, err := ReadTrace(tw.Path())
	require.Nil(t, err)
	assert.Equal(t, int64(-3), header.Seed)
	assert.Equal(t, 4, header.DirectorySize)
	assert.Equal(t, int64(1700000000), header.Created)
	assert.Equal(t, steps, read)
}

func TestTraceDirectoryLocked(t *testing.T) {
	dir := t.TempDir()

	tw, err := NewTraceWriter(dir, TraceHeader{Seed: 1})
	require.Nil(t, err)

	_, err = NewTraceWriter(dir, TraceHeader{Seed: 2})
	assert.True(t, errors.Is(err, ErrTraceLocked))

	require.Nil(t, tw.Close())

	// released on close
	tw, err = NewTraceWriter(dir, TraceHeader{Seed: 2})
	require.Nil(t, err)
	require.Nil(t, tw.Close())
}

func TestTraceCorrupted(t *testing.T) {
	dir := t.TempDir()

	tw, err := NewTraceWriter(dir, TraceHeader{Seed: 8})
	require.Nil(t, err)
	for _, step := range NewGenerator(8).Steps(10) {
		require.Nil(t, tw.Write(step))
	}
	require.Nil(t, tw.Close())

	data, err := os.ReadFile(tw.Path())
	require.Nil(t, err)

	// flip one payload byte of the last frame
	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-1] ^= 0xff
	require.Nil(t, os.WriteFile(tw.Path(), flipped, 0o644))

	_, _, err = ReadTrace(tw.Path())
	assert.True(t, errors.Is(err, ErrCorruptedTrace))

	// truncated frame
	require.Nil(t, os.WriteFile(tw.Path(), data[:len(data)-2], 0o644))
	_, _, err = ReadTrace(tw.Path())
	assert.True(t, errors.Is(err, ErrCorruptedTrace))

	// not a trace at all
	require.Nil(t, os.WriteFile(tw.Path(), []byte("hello world"), 0o644))
	_, _, err = ReadTrace(tw.Path())
	assert.True(t, errors.Is(err, ErrCorruptedTrace))
}

func TestRunWithTraceReplay(t *testing.T) {
	dir := t.TempDir()

	report, err := Run(&Config{Seed: 2024, Steps: 3000, DirectorySize: 2, TraceDir: dir})
	require.Nil(t, err)

	replayed, err := Replay(TracePath(dir, 2024), nil)
	require.Nil(t, err)

	assert.Equal(t, report, replayed)
}

func TestComputeCRC32(t *testing.T) {
	a := ComputeCRC32([]byte("segdeque"))
	assert.Equal(t, a, ComputeCRC32([]byte("segdeque")))
	assert.NotEqual(t, a, ComputeCRC32([]byte("segdequf")))
}

func TestPreadFullShortFile(t *testing.T) {
	path := t.TempDir() + "/short"
	require.Nil(t, os.WriteFile(path, []byte("abc"), 0o644))

	fp, err := os.Open(path)
	require.Nil(t, err)
	defer fp.Close()

	buf := make([]byte, 2)
	require.Nil(t, PreadFull(int(fp.Fd()), buf, 1))
	assert.Equal(t, []byte("bc"), buf)

	buf = make([]byte, 8)
	assert.NotNil(t, PreadFull(int(fp.Fd()), buf, 0))
}
