package gauntlet

import (
	"hash/crc32"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// masked crc32c, a frame holding its own checksum does not verify
func ComputeCRC32(data []byte) uint32 {
	checksum := crc32.Checksum(data, castagnoliTable)
	return (checksum>>15 | checksum<<17) + 0xa282ead8
}

// pread does not modify the file pointer
func PreadFull(fd int, buf []byte, offset int64) error {
	totalRead, expectRead := 0, len(buf)
	for totalRead < expectRead {
		n, err := unix.Pread(fd, buf[totalRead:], offset+int64(totalRead))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}

		// the file is shorter than expected
		if n == 0 {
			return io.ErrUnexpectedEOF
		}

		totalRead += n
	}

	return nil
}

func PathExists(path string) bool {
	_, err := os.Stat(path)
	if err != nil && os.IsNotExist(err) {
		return false
	}
	return true
}
