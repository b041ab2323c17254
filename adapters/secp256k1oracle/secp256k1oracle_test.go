// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package secp256k1oracle

import (
	"context"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/timecoin-project/timecoin/core"
)

func TestSignThenVerifyRoundTrips(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	oracle := New()
	msg := []byte("finality vote payload")

	sig, err := oracle.Sign(context.Background(), core.PrivateKey(priv.Serialize()), msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	pub := priv.PubKey().SerializeCompressed()
	if !oracle.Verify(context.Background(), core.PubKey(pub), msg, sig) {
		t.Fatalf("expected signature to verify")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	oracle := New()
	sig, err := oracle.Sign(context.Background(), core.PrivateKey(priv.Serialize()), []byte("original"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	pub := priv.PubKey().SerializeCompressed()
	if oracle.Verify(context.Background(), core.PubKey(pub), []byte("tampered"), sig) {
		t.Fatalf("expected verification to fail for a tampered message")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv1, _ := secp256k1.GeneratePrivateKey()
	priv2, _ := secp256k1.GeneratePrivateKey()
	oracle := New()

	sig, err := oracle.Sign(context.Background(), core.PrivateKey(priv1.Serialize()), []byte("payload"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	wrongPub := priv2.PubKey().SerializeCompressed()
	if oracle.Verify(context.Background(), core.PubKey(wrongPub), []byte("payload"), sig) {
		t.Fatalf("expected verification to fail for the wrong public key")
	}
}
