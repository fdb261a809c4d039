package gauntlet

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	TraceFileSuffix = ".trace"
	LockFile        = "LOCK"

	traceMagic   = "segdeque-gauntlet"
	traceVersion = 1

	// crc32 (4B) + payload length (uvarint)
	frameHeaderSize    = 4 + binary.MaxVarintLen32
	minFrameHeaderSize = 4 + 1
)

var (
	ErrTraceLocked    = errors.New("trace directory locked")
	ErrCorruptedTrace = errors.New("corrupted trace")
)

// the first frame of every trace file
type TraceHeader struct {
	Magic         string `msgpack:"magic"`
	Version       int    `msgpack:"version"`
	Seed          int64  `msgpack:"seed"`
	DirectorySize int    `msgpack:"directory_size"`
	Created       int64  `msgpack:"created"`
}

// a negative seed keeps its bit pattern, so file names stay fixed width
func TraceFilename(seed int64) string {
	return fmt.Sprintf("%020d%s", uint64(seed), TraceFileSuffix)
}

func TracePath(dir string, seed int64) string {
	return filepath.Join(dir, TraceFilename(seed))
}

func LockPath(dir string) string {
	return filepath.Join(dir, LockFile)
}

// TraceWriter appends steps to a trace file, one frame per step:
//
// | crc32 | payload size | payload |
//
// crc32: 4B little endian, masked crc32c of the payload
// payload size: uvarint
// payload: msgpack encoded header or step
//
// The directory is locked for the lifetime of the writer.
type TraceWriter struct {
	fileLock *flock.Flock

	fp   *os.File
	w    *bufio.Writer
	path string

	steps int
}

func NewTraceWriter(dir string, header TraceHeader) (*TraceWriter, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}

	fileLock := flock.New(LockPath(dir))
	hold, err := fileLock.TryLock()
	if err != nil || !hold {
		return nil, errors.Join(err, ErrTraceLocked)
	}

	path := TracePath(dir, header.Seed)
	fp, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		_ = fileLock.Unlock()
		return nil, err
	}

	tw := &TraceWriter{
		fileLock: fileLock,
		fp:       fp,
		w:        bufio.NewWriter(fp),
		path:     path,
	}

	header.Magic = traceMagic
	header.Version = traceVersion
	if err = tw.writeFrame(&header); err != nil {
		_ = tw.Close()
		return nil, err
	}

	return tw, nil
}

func (tw *TraceWriter) writeFrame(v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}

	var header [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], ComputeCRC32(payload))
	n := 4 + binary.PutUvarint(header[4:], uint64(len(payload)))

	if _, err = tw.w.Write(header[:n]); err != nil {
		return err
	}

	_, err = tw.w.Write(payload)
	return err
}

func (tw *TraceWriter) Write(step Step) error {
	if err := tw.writeFrame(&step); err != nil {
		return err
	}

	tw.steps++
	return nil
}

func (tw *TraceWriter) Path() string {
	return tw.path
}

func (tw *TraceWriter) Steps() int {
	return tw.steps
}

func (tw *TraceWriter) Flush() error {
	if err := tw.w.Flush(); err != nil {
		return err
	}

	return tw.fp.Sync()
}

func (tw *TraceWriter) Close() error {
	return errors.Join(tw.Flush(), tw.fp.Close(), tw.fileLock.Unlock())
}

// return 0, 0 for all exceptions
func DecodeUvarint(data []byte) (uint64, int) {
	v, size := binary.Uvarint(data)
	if size <= 0 {
		return 0, 0
	}
	return v, size
}

// decodeFrame decodes the frame at the head of data into v and returns the
// frame size
func decodeFrame(data []byte, v any) (int, error) {
	if len(data) < minFrameHeaderSize {
		return 0, ErrCorruptedTrace
	}

	checksum := binary.LittleEndian.Uint32(data[:4])
	size, n := DecodeUvarint(data[4:])
	if n == 0 || size > uint64(len(data)-4-n) {
		return 0, ErrCorruptedTrace
	}

	offset := 4 + n
	payload := data[offset : offset+int(size)]
	if ComputeCRC32(payload) != checksum {
		return 0, ErrCorruptedTrace
	}

	if err := msgpack.Unmarshal(payload, v); err != nil {
		return 0, errors.Join(err, ErrCorruptedTrace)
	}

	return offset + int(size), nil
}

// ReadTrace loads a whole trace file and verifies every frame
func ReadTrace(path string) (*TraceHeader, []Step, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer fp.Close()

	stat, err := fp.Stat()
	if err != nil {
		return nil, nil, err
	}

	data := make([]byte, stat.Size())
	if err = PreadFull(int(fp.Fd()), data, 0); err != nil {
		return nil, nil, err
	}

	var header TraceHeader
	offset, err := decodeFrame(data, &header)
	if err != nil {
		return nil, nil, err
	}

	if header.Magic != traceMagic || header.Version != traceVersion {
		return nil, nil, ErrCorruptedTrace
	}

	var steps []Step
	for offset < len(data) {
		var step Step
		n, err := decodeFrame(data[offset:], &step)
		if err != nil {
			return nil, nil, fmt.Errorf("frame %d: %w", len(steps)+1, err)
		}

		steps = append(steps, step)
		offset += n
	}

	return &header, steps, nil
}
