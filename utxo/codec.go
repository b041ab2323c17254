// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utxo

import (
	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/utils/wrappers"
)

// encodeUTXO/decodeUTXO are the persisted-record encoding for a single
// outpoint -> UTXO entry; this is a storage detail internal to the store
// and distinct from core.SerializeTx (which hashes and signs transactions).
func encodeUTXO(u *core.UTXO) []byte {
	p := wrappers.Packer{}
	p.PackFixedBytes(u.OutPoint.TxID.Bytes())
	p.PackInt(u.OutPoint.Vout)
	p.PackLong(u.Amount)
	p.PackBytes([]byte(u.Owner))
	p.PackLong(u.CreatedAtHeight)
	p.PackByte(byte(u.State))
	p.PackFixedBytes(u.SpendingTx.Bytes())
	return p.Bytes
}

func decodeUTXO(raw []byte) (*core.UTXO, error) {
	p := wrappers.Packer{Bytes: raw}
	txidBytes := p.UnpackFixedBytes(32)
	vout := p.UnpackInt()
	amount := p.UnpackLong()
	owner := p.UnpackBytes()
	height := p.UnpackLong()
	state := p.UnpackByte()
	spendingBytes := p.UnpackFixedBytes(32)
	if p.Errored() {
		return nil, p.Err
	}

	txid, err := ids.ToID(txidBytes)
	if err != nil {
		return nil, err
	}
	spendingTx, err := ids.ToID(spendingBytes)
	if err != nil {
		return nil, err
	}

	return &core.UTXO{
		OutPoint:        core.OutPoint{TxID: txid, Vout: vout},
		Amount:          amount,
		Owner:           core.Address(owner),
		CreatedAtHeight: height,
		State:           core.UtxoState(state),
		SpendingTx:      spendingTx,
	}, nil
}
