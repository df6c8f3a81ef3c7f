package compare

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/sdejongh/treesync/pkg/models"
	"github.com/sdejongh/treesync/pkg/storage"
)

const (
	// DefaultBufferSize is the chunk size used to stream file content
	DefaultBufferSize = 64 * 1024
	// MinBufferSize is the smallest accepted chunk size
	MinBufferSize = 1024
)

// Hasher computes content digests by streaming a file in fixed-size chunks,
// so memory use does not depend on file size.
type Hasher struct {
	algorithm  models.HashAlgorithm
	newHash    func() hash.Hash
	bufferSize int
	bufferPool *sync.Pool
}

// NewHasher creates a hasher for the given algorithm
func NewHasher(algorithm models.HashAlgorithm, bufferSize int) (*Hasher, error) {
	var newHash func() hash.Hash
	switch algorithm {
	case models.HashSHA1, "":
		algorithm = models.HashSHA1
		newHash = sha1.New
	case models.HashSHA256:
		newHash = sha256.New
	case models.HashMD5:
		newHash = md5.New
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s (use: sha1, sha256, md5)", algorithm)
	}

	if bufferSize < MinBufferSize {
		bufferSize = MinBufferSize
	}

	return &Hasher{
		algorithm:  algorithm,
		newHash:    newHash,
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}, nil
}

// Algorithm returns the digest algorithm
func (h *Hasher) Algorithm() models.HashAlgorithm {
	return h.algorithm
}

// BufferSize returns the chunk size
func (h *Hasher) BufferSize() int {
	return h.bufferSize
}

// Sum returns the hex digest of a file and the number of bytes read
func (h *Hasher) Sum(ctx context.Context, backend storage.Backend, path string) (string, int64, error) {
	reader, err := backend.Read(ctx, path)
	if err != nil {
		return "", 0, err
	}
	defer reader.Close()

	return h.SumReader(ctx, reader)
}

// SumReader returns the hex digest of everything read from r
func (h *Hasher) SumReader(ctx context.Context, r io.Reader) (string, int64, error) {
	hasher := h.newHash()

	bufPtr := h.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer h.bufferPool.Put(bufPtr)

	var totalRead int64
	for {
		if err := ctx.Err(); err != nil {
			return "", totalRead, err
		}

		n, err := r.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
			totalRead += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", totalRead, fmt.Errorf("failed to read file: %w", err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), totalRead, nil
}
