// Package sha256 exposes the SIMD accelerated sha256 from
// github.com/minio/sha256-simd under the names of crypto/sha256.
package sha256

import (
	"hash"

	sha "github.com/minio/sha256-simd"
)

// Size is the byte length of a sha256 digest.
const Size = sha.Size

// Sum256 returns the sha256 digest of data.
func Sum256(data []byte) [Size]byte { return sha.Sum256(data) }

// New returns a new streaming sha256 hash.
func New() hash.Hash { return sha.New() }
