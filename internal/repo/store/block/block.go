package block

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"github.com/keshon/bvc-subtree/internal/fs"
	"github.com/keshon/bvc-subtree/internal/util"
)

// BlockRef describes one physical block of content.
type BlockRef struct {
	Hash   string `json:"hash"`
	Size   int64  `json:"size"`
	Offset int64  `json:"offset"`
}

// BlockStatus indicates the state of a block on disk.
type BlockStatus int

const (
	OK BlockStatus = iota
	Missing
	Damaged
)

func (s BlockStatus) String() string {
	switch s {
	case OK:
		return "ok"
	case Missing:
		return "missing"
	case Damaged:
		return "damaged"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// BlockCheck is the verification result of a single block.
type BlockCheck struct {
	Hash   string
	Status BlockStatus
}

// BlockContext handles all object-level storage (.bvc/objects).
type BlockContext struct {
	Root string
	FS   fs.FS
}

func NewBlockContext(root string, fsys fs.FS) *BlockContext {
	return &BlockContext{Root: root, FS: fsys}
}

func (bc *BlockContext) path(hash string) string {
	return filepath.Join(bc.Root, hash+".bin")
}

// Has reports whether a block with the given hash is stored.
func (bc *BlockContext) Has(hash string) bool {
	return bc.FS.Exists(bc.path(hash))
}

// Read retrieves a block by its hash.
func (bc *BlockContext) Read(hash string) ([]byte, error) {
	data, err := bc.FS.ReadFile(bc.path(hash))
	if err != nil {
		return nil, fmt.Errorf("read block %q: %w", hash, err)
	}
	return data, nil
}

// ReadAll concatenates the given blocks in order.
func (bc *BlockContext) ReadAll(blocks []BlockRef) ([]byte, error) {
	var size int64
	for _, b := range blocks {
		size += b.Size
	}
	out := make([]byte, 0, size)
	for _, b := range blocks {
		data, err := bc.Read(b.Hash)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

// Write stores all blocks of the file at filePath.
func (bc *BlockContext) Write(ctx context.Context, filePath string, blocks []BlockRef) error {
	if err := bc.FS.MkdirAll(bc.Root, 0o755); err != nil {
		return fmt.Errorf("create objects dir: %w", err)
	}
	return util.Parallel(ctx, blocks, util.WorkerCount(), func(_ context.Context, b BlockRef) error {
		if bc.exists(b) {
			return nil
		}
		data, err := bc.readRange(filePath, b)
		if err != nil {
			return err
		}
		return bc.writeAtomic(b, data)
	})
}

// WriteData splits data into blocks and stores them.
func (bc *BlockContext) WriteData(data []byte) ([]BlockRef, error) {
	if err := bc.FS.MkdirAll(bc.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create objects dir: %w", err)
	}
	refs := SplitData(data)
	for _, b := range refs {
		if bc.exists(b) {
			continue
		}
		if err := bc.writeAtomic(b, data[b.Offset:b.Offset+b.Size]); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

// ErrHashMismatch is returned when block content does not match its name.
var ErrHashMismatch = errors.New("block hash mismatch")

// Put stores a block received from another store after checking its hash.
func (bc *BlockContext) Put(hash string, data []byte) error {
	ref := hashBlock(data, 0)
	if ref.Hash != hash {
		return fmt.Errorf("%w: want %s, got %s", ErrHashMismatch, hash, ref.Hash)
	}
	if bc.exists(ref) {
		return nil
	}
	if err := bc.FS.MkdirAll(bc.Root, 0o755); err != nil {
		return fmt.Errorf("create objects dir: %w", err)
	}
	return bc.writeAtomic(ref, data)
}

func (bc *BlockContext) exists(b BlockRef) bool {
	fi, err := bc.FS.Stat(bc.path(b.Hash))
	return err == nil && fi.Size() == b.Size
}

func (bc *BlockContext) readRange(filePath string, b BlockRef) ([]byte, error) {
	src, err := bc.FS.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open source file %q: %w", filePath, err)
	}
	defer src.Close()

	if _, err := src.Seek(b.Offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to offset %d in %q: %w", b.Offset, filePath, err)
	}
	data := make([]byte, b.Size)
	if _, err := io.ReadFull(src, data); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read block %q: %w", b.Hash, err)
	}
	return data, nil
}

func (bc *BlockContext) writeAtomic(b BlockRef, data []byte) error {
	dst := bc.path(b.Hash)
	tmp, tmpPath, err := bc.FS.CreateTempFile(bc.Root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %q: %w", bc.Root, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = bc.FS.Remove(tmpPath)
		return fmt.Errorf("write temp block: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = bc.FS.Remove(tmpPath)
		return fmt.Errorf("close temp block: %w", err)
	}
	if err := bc.FS.Rename(tmpPath, dst); err != nil {
		_ = bc.FS.Remove(tmpPath)
		return fmt.Errorf("rename temp %q to %q: %w", tmpPath, dst, err)
	}
	return nil
}

func hashBlock(data []byte, offset int64) BlockRef {
	h := xxh3.Hash128(data).Bytes()
	return BlockRef{
		Hash:   hex.EncodeToString(h[:]),
		Size:   int64(len(data)),
		Offset: offset,
	}
}
