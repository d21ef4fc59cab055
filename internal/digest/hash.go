// Package digest computes per-file content digests for the manifest.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// EmptySHA256 is the SHA-256 digest of zero bytes of input.
const EmptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// Hasher produces the digest recorded for a file.
// A nil digest means no digest is recorded for the entry.
type Hasher interface {
	Digest(path string) (*string, error)
}

// New returns a SHA256Hasher when recordHashes is set, a NullHasher otherwise.
func New(recordHashes bool) Hasher {
	if recordHashes {
		return NewSHA256Hasher()
	}
	return NullHasher{}
}

// SHA256Hasher streams file contents through SHA-256 and renders lowercase hex.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// Digest reads the whole file at path. Any open or read failure is returned.
func (h *SHA256Hasher) Digest(path string) (*string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	sum := sha256.New()
	if _, err := io.Copy(sum, f); err != nil {
		return nil, fmt.Errorf("failed to read %s for hashing: %w", path, err)
	}
	hexSum := hex.EncodeToString(sum.Sum(nil))
	return &hexSum, nil
}

// NullHasher records no digest. Every file still gets a manifest entry.
type NullHasher struct{}

// Digest always returns nil without touching the file.
func (NullHasher) Digest(string) (*string, error) {
	return nil, nil
}

// Bytes returns the SHA-256 of data as lowercase hex.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
