// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"encoding/binary"
	"sort"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/utils/hashing"
	"github.com/timecoin-project/timecoin/validator"
)

// sampleKey derives the deterministic tie-break key for (txid, voter, round):
// H(txid || voter || round), used both to order candidates and to break
// ties in weighted sampling reproducibly across nodes.
func sampleKey(txid ids.ID, voter core.Address, round int) [32]byte {
	buf := make([]byte, 0, 32+len(voter)+8)
	buf = append(buf, txid.Bytes()...)
	buf = append(buf, []byte(voter)...)
	var r [8]byte
	binary.LittleEndian.PutUint64(r[:], uint64(round))
	buf = append(buf, r[:]...)
	return hashing.ComputeHash256Array(buf)
}

// sampleValidators draws up to k validators from snap, excluding self,
// weighted by stake_weight adjusted by reputation (suspicion). Negative
// suspicion de-weights a peer's chance of selection; it is never excluded
// outright since a sampling round must still make progress even against a
// validator the local node currently distrusts.
func sampleValidators(snap *validator.Snapshot, self core.Address, suspicion map[core.Address]int32, cap int32, txid ids.ID, round int, k int) []core.Address {
	type candidate struct {
		id     core.Address
		weight float64
		key    [32]byte
		score  float64
	}

	candidates := make([]candidate, 0, len(snap.Members))
	for _, m := range snap.Members {
		if m.ID == self {
			continue
		}
		w := float64(m.StakeWeight)
		if s, ok := suspicion[m.ID]; ok {
			// Suspicion in [-cap, +cap] maps to a weight multiplier in
			// (0, 2]: fully trusted doubles weight, maximally suspected
			// approaches (but never reaches) zero.
			factor := 1.0 + float64(s)/float64(cap)
			if factor < 0.01 {
				factor = 0.01
			}
			w *= factor
		}
		key := sampleKey(txid, m.ID, round)
		candidates = append(candidates, candidate{id: m.ID, weight: w, key: key, score: scoreOf(key, w)})
	}

	if k > len(candidates) {
		k = len(candidates)
	}

	// Weighted reservoir-style selection made deterministic: score each
	// candidate by key-derived randomness divided by weight (higher weight
	// -> lower score -> more likely selected), then take the k lowest.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	out := make([]core.Address, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, candidates[i].id)
	}
	return out
}

func scoreOf(key [32]byte, weight float64) float64 {
	if weight <= 0 {
		weight = 0.0001
	}
	u := binary.LittleEndian.Uint64(key[:8])
	// Normalize to (0, 1) so the division below is well-behaved regardless
	// of the raw hash magnitude.
	frac := float64(u>>11) / float64(1<<53)
	if frac <= 0 {
		frac = 1e-9
	}
	return frac / weight
}
