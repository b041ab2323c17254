// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package secp256k1oracle is the default core.SignatureOracle, backed by
// decred/dcrd's secp256k1 implementation -- the same curve the teacher's
// vms/secp256k1fx credentials are built on, here driving plain ECDSA
// signatures over a vote/proposal payload instead of a UTXO-spend
// credential script.
package secp256k1oracle

import (
	"context"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/utils/hashing"
)

// Oracle signs and verifies over the secp256k1 curve. It holds no key
// material itself: Sign takes the caller's PrivateKey bytes directly, so
// callers can source keys from a file, an HSM shim, or a test fixture
// without this package caring which.
type Oracle struct{}

// New constructs a secp256k1 Oracle.
func New() *Oracle { return &Oracle{} }

// Sign signs msg's hash with priv, interpreted as a raw 32-byte secp256k1
// private key scalar.
func (Oracle) Sign(_ context.Context, priv core.PrivateKey, msg []byte) (core.Signature, error) {
	key := secp256k1.PrivKeyFromBytes(priv)
	digest := hashing.ComputeHash256(msg)
	sig := ecdsa.Sign(key, digest)
	return core.Signature(sig.Serialize()), nil
}

// Verify reports whether sig is a valid secp256k1 ECDSA signature over
// msg's hash under pub, a compressed or uncompressed public key encoding.
func (Oracle) Verify(_ context.Context, pub core.PubKey, msg []byte, sig core.Signature) bool {
	key, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := hashing.ComputeHash256(msg)
	return parsed.Verify(digest, key)
}
