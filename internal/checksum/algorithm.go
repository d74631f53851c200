// Package checksum computes file digests and verifies them against a manifest.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// ErrUnsupportedAlgorithm is returned for checksum algorithm names that have no implementation.
var ErrUnsupportedAlgorithm = errors.New("unsupported checksum algorithm")

// Names follow Python's hashlib so existing manifests keep working.
var algorithms = map[string]func() hash.Hash{
	"md5":        md5.New,
	"sha1":       sha1.New,
	"sha224":     sha256.New224,
	"sha256":     sha256.New,
	"sha384":     sha512.New384,
	"sha512":     sha512.New,
	"sha512_224": sha512.New512_224,
	"sha512_256": sha512.New512_256,
	"sha3_224":   sha3.New224,
	"sha3_256":   sha3.New256,
	"sha3_384":   sha3.New384,
	"sha3_512":   sha3.New512,
	"blake2b":    newBlake2b,
	"blake2s":    newBlake2s,
}

func newBlake2b() hash.Hash {
	h, _ := blake2b.New512(nil)
	return h
}

func newBlake2s() hash.Hash {
	h, _ := blake2s.New256(nil)
	return h
}

// New returns a fresh hash for the named algorithm.
//
// Lookup ignores case and accepts "-" in place of "_", so "SHA3-256" and
// "sha3_256" name the same algorithm.
func New(algo string) (hash.Hash, error) {
	ctor, ok := algorithms[normalize(algo)]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "%q (supported: %s)", algo, strings.Join(Supported(), ", "))
	}
	return ctor(), nil
}

// Supported returns the accepted algorithm names in sorted order.
func Supported() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(algo string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(algo)), "-", "_")
}
