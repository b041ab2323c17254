// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wrappers implements the canonical little-endian, length-prefixed
// byte encoding used for every hashed or wire-exchanged TimeCoin structure
// (transactions, block headers, votes, vertices). Keeping one Packer
// implementation means SerializeTx, SerializeBlockHeader and friends can't
// drift from each other or from their Unpack counterparts.
package wrappers

import (
	"encoding/binary"
	"errors"
)

const (
	ByteLen  = 1
	ShortLen = 2
	IntLen   = 4
	LongLen  = 8
)

var errBadLength = errors.New("wrappers: packer exceeded MaxSize or ran past the end of the buffer")

// Packer serializes values into Bytes in canonical little-endian form, or
// parses them back out. A zero Packer with MaxSize 0 means unbounded.
type Packer struct {
	MaxSize int
	Errs

	Bytes  []byte
	Offset int
}

func (p *Packer) expand(n int) bool {
	needed := p.Offset + n
	if p.MaxSize > 0 && needed > p.MaxSize {
		p.Add(errBadLength)
		return false
	}
	if needed <= len(p.Bytes) {
		return true
	}
	newBytes := make([]byte, needed)
	copy(newBytes, p.Bytes)
	p.Bytes = newBytes
	return true
}

// PackByte writes a single byte.
func (p *Packer) PackByte(v byte) {
	if !p.expand(ByteLen) {
		return
	}
	p.Bytes[p.Offset] = v
	p.Offset += ByteLen
}

// UnpackByte reads a single byte.
func (p *Packer) UnpackByte() byte {
	if p.Offset+ByteLen > len(p.Bytes) {
		p.Add(errBadLength)
		return 0
	}
	v := p.Bytes[p.Offset]
	p.Offset += ByteLen
	return v
}

// PackShort writes a uint16.
func (p *Packer) PackShort(v uint16) {
	if !p.expand(ShortLen) {
		return
	}
	binary.LittleEndian.PutUint16(p.Bytes[p.Offset:], v)
	p.Offset += ShortLen
}

// UnpackShort reads a uint16.
func (p *Packer) UnpackShort() uint16 {
	if p.Offset+ShortLen > len(p.Bytes) {
		p.Add(errBadLength)
		return 0
	}
	v := binary.LittleEndian.Uint16(p.Bytes[p.Offset:])
	p.Offset += ShortLen
	return v
}

// PackInt writes a uint32.
func (p *Packer) PackInt(v uint32) {
	if !p.expand(IntLen) {
		return
	}
	binary.LittleEndian.PutUint32(p.Bytes[p.Offset:], v)
	p.Offset += IntLen
}

// UnpackInt reads a uint32.
func (p *Packer) UnpackInt() uint32 {
	if p.Offset+IntLen > len(p.Bytes) {
		p.Add(errBadLength)
		return 0
	}
	v := binary.LittleEndian.Uint32(p.Bytes[p.Offset:])
	p.Offset += IntLen
	return v
}

// PackLong writes a uint64.
func (p *Packer) PackLong(v uint64) {
	if !p.expand(LongLen) {
		return
	}
	binary.LittleEndian.PutUint64(p.Bytes[p.Offset:], v)
	p.Offset += LongLen
}

// UnpackLong reads a uint64.
func (p *Packer) UnpackLong() uint64 {
	if p.Offset+LongLen > len(p.Bytes) {
		p.Add(errBadLength)
		return 0
	}
	v := binary.LittleEndian.Uint64(p.Bytes[p.Offset:])
	p.Offset += LongLen
	return v
}

// PackFixedBytes writes b verbatim, with no length prefix. Used for
// fixed-width fields (hashes, addresses, signatures) whose length is implied
// by the schema rather than carried on the wire.
func (p *Packer) PackFixedBytes(b []byte) {
	if !p.expand(len(b)) {
		return
	}
	copy(p.Bytes[p.Offset:], b)
	p.Offset += len(b)
}

// UnpackFixedBytes reads exactly n bytes.
func (p *Packer) UnpackFixedBytes(n int) []byte {
	if p.Offset+n > len(p.Bytes) {
		p.Add(errBadLength)
		return nil
	}
	b := make([]byte, n)
	copy(b, p.Bytes[p.Offset:p.Offset+n])
	p.Offset += n
	return b
}

// PackBytes writes a uint32 length prefix followed by b.
func (p *Packer) PackBytes(b []byte) {
	p.PackInt(uint32(len(b)))
	p.PackFixedBytes(b)
}

// UnpackBytes reads a length-prefixed byte slice.
func (p *Packer) UnpackBytes() []byte {
	n := p.UnpackInt()
	if p.Errored() {
		return nil
	}
	return p.UnpackFixedBytes(int(n))
}

// PackBool writes a boolean as a single byte.
func (p *Packer) PackBool(v bool) {
	if v {
		p.PackByte(1)
	} else {
		p.PackByte(0)
	}
}

// UnpackBool reads a single-byte boolean.
func (p *Packer) UnpackBool() bool { return p.UnpackByte() != 0 }
