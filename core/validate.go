// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

// MinOutput is the dust floor: outputs below this amount are rejected.
const MinOutput = 1

// ValidateStructure checks the syntactic invariants from §3: unique inputs,
// positive outputs above dust, non-negative fee, and a bounded serialized
// size. It does not check signatures or UTXO existence -- those require
// the signature oracle and the UTXO store respectively.
func ValidateStructure(tx *Transaction) error {
	if !tx.Coinbase && len(tx.Inputs) == 0 {
		return NewValidationError("non-coinbase transaction has no inputs")
	}

	seen := make(map[OutPoint]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if _, dup := seen[in]; dup {
			return NewValidationError("duplicate input %s", in)
		}
		seen[in] = struct{}{}
	}

	if len(tx.Outputs) == 0 {
		return NewValidationError("transaction has no outputs")
	}

	var totalOut uint64
	for _, out := range tx.Outputs {
		if out.Amount < MinOutput {
			return NewValidationError("output to %s below dust floor", out.Address)
		}
		next := totalOut + out.Amount
		if next < totalOut {
			return NewValidationError("output total overflows u64")
		}
		totalOut = next
	}

	if !tx.Coinbase && len(tx.Signatures) != len(tx.Inputs) {
		return NewValidationError("expected %d signatures, got %d", len(tx.Inputs), len(tx.Signatures))
	}

	if len(SerializeTx(tx, true)) > MaxTxBytes {
		return NewValidationError("serialized transaction exceeds MAX_TX_BYTES")
	}
	return nil
}
