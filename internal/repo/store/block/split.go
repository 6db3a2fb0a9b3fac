package block

import (
	"fmt"
	"io"
)

const (
	minChunkSize = 2 * 1024 * 1024 // 2 MiB
	maxChunkSize = 8 * 1024 * 1024 // 8 MiB
	rollMod      = 4096
	readBufSize  = 32 * 1024
)

// gearTable holds 256 pseudo-random values for the rolling hash.
// Seeded splitmix64 keeps chunk boundaries stable across builds.
var gearTable = func() [256]uint32 {
	var t [256]uint32
	x := uint64(0x9E3779B97F4A7C15)
	for i := range t {
		x += 0x9E3779B97F4A7C15
		z := x
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z ^= z >> 31
		t[i] = uint32(z >> 32)
	}
	return t
}()

type splitter struct {
	rh     uint32
	buf    []byte
	offset int64
	out    []BlockRef
}

func (s *splitter) feed(data []byte) {
	for _, b := range data {
		s.buf = append(s.buf, b)
		s.rh = (s.rh << 1) + gearTable[b]
		if shouldSplitBlock(len(s.buf), s.rh) {
			s.flush()
		}
	}
}

func (s *splitter) flush() {
	if len(s.buf) == 0 {
		return
	}
	br := hashBlock(s.buf, s.offset)
	s.out = append(s.out, br)
	s.offset += br.Size
	s.buf = s.buf[:0]
	s.rh = 0
}

func shouldSplitBlock(size int, rh uint32) bool {
	return (size >= minChunkSize && rh%rollMod == 0) || size >= maxChunkSize
}

// SplitData divides data into content-defined blocks.
func SplitData(data []byte) []BlockRef {
	s := &splitter{buf: make([]byte, 0, min(len(data), minChunkSize))}
	s.feed(data)
	s.flush()
	return s.out
}

// SplitFile streams the file at path and divides it into content-defined
// blocks using a Gear rolling hash. Blocks are returned in file order.
func (bc *BlockContext) SplitFile(path string) ([]BlockRef, error) {
	fi, err := bc.FS.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file %q: %w", path, err)
	}
	if fi.Size() == 0 {
		return nil, nil
	}

	f, err := bc.FS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %q: %w", path, err)
	}
	defer f.Close()

	s := &splitter{buf: make([]byte, 0, min(int(fi.Size()), 64*1024))}
	readBuf := make([]byte, readBufSize)
	for {
		n, rerr := f.Read(readBuf)
		if n > 0 {
			s.feed(readBuf[:n])
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, fmt.Errorf("read file %q: %w", path, rerr)
		}
	}
	s.flush()
	return s.out, nil
}
