// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

import (
	"bytes"
	"testing"
)

func TestPackerRoundTrip(t *testing.T) {
	p := Packer{MaxSize: 1024}
	p.PackByte(0x01)
	p.PackShort(0x0203)
	p.PackInt(0x04050607)
	p.PackLong(0x0102030405060708)
	p.PackBytes([]byte("hello"))
	p.PackBool(true)
	if p.Errored() {
		t.Fatalf("unexpected pack error: %v", p.Err)
	}

	up := Packer{Bytes: p.Bytes}
	if v := up.UnpackByte(); v != 0x01 {
		t.Fatalf("byte mismatch: %x", v)
	}
	if v := up.UnpackShort(); v != 0x0203 {
		t.Fatalf("short mismatch: %x", v)
	}
	if v := up.UnpackInt(); v != 0x04050607 {
		t.Fatalf("int mismatch: %x", v)
	}
	if v := up.UnpackLong(); v != 0x0102030405060708 {
		t.Fatalf("long mismatch: %x", v)
	}
	if v := up.UnpackBytes(); !bytes.Equal(v, []byte("hello")) {
		t.Fatalf("bytes mismatch: %q", v)
	}
	if v := up.UnpackBool(); !v {
		t.Fatalf("expected true")
	}
	if up.Errored() {
		t.Fatalf("unexpected unpack error: %v", up.Err)
	}
}

func TestPackerMaxSizeEnforced(t *testing.T) {
	p := Packer{MaxSize: 4}
	p.PackLong(1)
	if !p.Errored() {
		t.Fatalf("expected MaxSize overflow to be recorded as an error")
	}
}

func TestUnpackPastEndErrors(t *testing.T) {
	p := Packer{Bytes: []byte{0x01}}
	p.UnpackLong()
	if !p.Errored() {
		t.Fatalf("expected reading past the end of the buffer to error")
	}
}
