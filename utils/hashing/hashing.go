// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hashing centralizes the SHA-256 primitives used for transaction
// and block-header IDs, so core's hashed structures, the sampler's scores
// and the signature oracle's digests all go through the same helper (ids
// derives prefixed IDs with sha256 directly).
package hashing

import "crypto/sha256"

const HashLen = sha256.Size

// ComputeHash256 returns the SHA-256 digest of buf.
func ComputeHash256(buf []byte) []byte {
	h := sha256.Sum256(buf)
	return h[:]
}

// ComputeHash256Array returns the SHA-256 digest of buf as a fixed-size
// array, suitable for direct conversion into an ids.ID.
func ComputeHash256Array(buf []byte) [HashLen]byte {
	return sha256.Sum256(buf)
}
