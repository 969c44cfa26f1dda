package imagescan

import (
	"fmt"
	"io"
	"os"
)

// scanChunkSize is the unit of sequential reads during a scan. The
// cancellation predicate is evaluated once per chunk, so it also
// bounds how much work happens between cancellation checks.
const scanChunkSize = 256 * 1024

// byteStream reads a file sequentially in chunks while tracking the
// absolute offset of the next unread byte. It also supports
// positioned reads, used only by Decode, never during a scan.
type byteStream struct {
	f   *os.File
	off uint64
	buf []byte
}

func openByteStream(path string) (*byteStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &byteStream{
		f:   f,
		buf: make([]byte, scanChunkSize),
	}, nil
}

// nextChunk returns the next up-to-scanChunkSize bytes of the file
// and the offset of its first byte. A nil chunk signals end of file.
// The returned slice is valid until the next call.
func (s *byteStream) nextChunk() ([]byte, uint64, error) {
	start := s.off
	n, err := s.f.Read(s.buf)
	if n > 0 {
		s.off += uint64(n)
		return s.buf[:n], start, nil
	}
	if err != nil && err != io.EOF {
		return nil, start, fmt.Errorf(
			"read %s: %w", s.f.Name(), err,
		)
	}
	return nil, start, nil
}

// readSlice performs a fresh positioned read of exactly length bytes
// starting at off. It does not disturb the sequential cursor.
func (s *byteStream) readSlice(off uint64, length int64) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf(
			"read %s: negative length %d", s.f.Name(), length,
		)
	}
	out := make([]byte, length)
	if _, err := s.f.ReadAt(out, int64(off)); err != nil {
		return nil, fmt.Errorf(
			"read %s at %d: %w", s.f.Name(), off, err,
		)
	}
	return out, nil
}

func (s *byteStream) close() {
	s.f.Close()
}
