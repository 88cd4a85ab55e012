// Package checksum fingerprints import files.
//
// The checksum covers the raw bytes as read from disk, before any decoding,
// so the same file always hashes the same regardless of its declared
// encoding. The hash is computed while the file streams through the loader;
// the file is never read twice.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// Reader hashes every byte read through it with SHA-256.
type Reader struct {
	tee  io.Reader
	hash hash.Hash
}

// NewReader wraps r so the bytes consumed by the caller are hashed as a
// side effect of reading.
func NewReader(r io.Reader) *Reader {
	h := sha256.New()
	return &Reader{
		tee:  io.TeeReader(r, h),
		hash: h,
	}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	return r.tee.Read(p)
}

// Sum returns the hex-encoded SHA-256 of everything read so far.
func (r *Reader) Sum() string {
	return hex.EncodeToString(r.hash.Sum(nil))
}

// Sum computes the hex-encoded SHA-256 of content in one call.
func Sum(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
