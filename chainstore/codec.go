// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chainstore

import (
	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/utils/wrappers"
)

func encodeBlock(p *wrappers.Packer, b *core.Block) {
	h := b.Header
	p.PackInt(h.Version)
	p.PackLong(h.Height)
	p.PackFixedBytes(h.PrevHash.Bytes())
	p.PackFixedBytes(h.MerkleRoot.Bytes())
	p.PackLong(h.SlotIndex)
	p.PackBytes([]byte(h.Proposer))
	p.PackLong(uint64(h.TimestampMS))
	p.PackBytes(h.VRFProof)
	p.PackLong(h.Reward)
	p.PackFixedBytes(b.BlockHash.Bytes())

	p.PackInt(uint32(len(b.TxIDs)))
	for _, txid := range b.TxIDs {
		p.PackFixedBytes(txid.Bytes())
	}
}

func decodeBlock(p *wrappers.Packer) (*core.Block, error) {
	var h core.BlockHeader
	h.Version = p.UnpackInt()
	h.Height = p.UnpackLong()
	prevHashBytes := p.UnpackFixedBytes(32)
	merkleBytes := p.UnpackFixedBytes(32)
	h.SlotIndex = p.UnpackLong()
	h.Proposer = core.Address(p.UnpackBytes())
	h.TimestampMS = int64(p.UnpackLong())
	h.VRFProof = p.UnpackBytes()
	h.Reward = p.UnpackLong()
	blockHashBytes := p.UnpackFixedBytes(32)

	n := p.UnpackInt()
	txids := make([]ids.ID, 0, n)
	for i := uint32(0); i < n; i++ {
		b := p.UnpackFixedBytes(32)
		if p.Errored() {
			break
		}
		id, err := ids.ToID(b)
		if err != nil {
			return nil, err
		}
		txids = append(txids, id)
	}
	if p.Errored() {
		return nil, p.Err
	}

	prevHash, err := ids.ToID(prevHashBytes)
	if err != nil {
		return nil, err
	}
	merkleRoot, err := ids.ToID(merkleBytes)
	if err != nil {
		return nil, err
	}
	blockHash, err := ids.ToID(blockHashBytes)
	if err != nil {
		return nil, err
	}
	h.PrevHash = prevHash
	h.MerkleRoot = merkleRoot

	return &core.Block{Header: h, TxIDs: txids, BlockHash: blockHash}, nil
}

func encodeCert(p *wrappers.Packer, c *core.FinalityCertificate) {
	p.PackFixedBytes(c.BlockHash.Bytes())
	p.PackInt(uint32(len(c.Votes)))
	for _, v := range c.Votes {
		p.PackFixedBytes(v.BlockHash.Bytes())
		p.PackBytes([]byte(v.Voter))
		p.PackLong(v.Weight)
		p.PackBytes(v.Sig)
	}
}

func decodeCert(p *wrappers.Packer) (*core.FinalityCertificate, error) {
	hashBytes := p.UnpackFixedBytes(32)
	n := p.UnpackInt()
	votes := make([]core.PrecommitVote, 0, n)
	for i := uint32(0); i < n; i++ {
		bhBytes := p.UnpackFixedBytes(32)
		voter := p.UnpackBytes()
		weight := p.UnpackLong()
		sig := p.UnpackBytes()
		if p.Errored() {
			break
		}
		bh, err := ids.ToID(bhBytes)
		if err != nil {
			return nil, err
		}
		votes = append(votes, core.PrecommitVote{BlockHash: bh, Voter: core.Address(voter), Weight: weight, Sig: sig})
	}
	if p.Errored() {
		return nil, p.Err
	}
	blockHash, err := ids.ToID(hashBytes)
	if err != nil {
		return nil, err
	}
	return &core.FinalityCertificate{BlockHash: blockHash, Votes: votes}, nil
}

func decodeBlockRecord(raw []byte) (*core.Block, *core.FinalityCertificate, error) {
	p := wrappers.Packer{Bytes: raw}
	block, err := decodeBlock(&p)
	if err != nil {
		return nil, nil, err
	}
	cert, err := decodeCert(&p)
	if err != nil {
		return nil, nil, err
	}
	return block, cert, nil
}

func encodeTip(height uint64, hash ids.ID) []byte {
	p := wrappers.Packer{}
	p.PackLong(height)
	p.PackFixedBytes(hash.Bytes())
	return p.Bytes
}
