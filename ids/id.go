// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ids implements the identifier algebra used throughout the core:
// 32-byte content hashes, 20-byte short identifiers (addresses, node ids),
// and the set/bag collections built on top of them.
package ids

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
)

const idLen = 32

var errWrongLen = errors.New("wrong length byte slice provided")

// ID is a 32 byte identifier, used for transaction, block and vertex hashes.
type ID [idLen]byte

// Empty is the all-zero ID.
var Empty = ID{}

// NewID creates an ID from a 32 byte array.
func NewID(b [idLen]byte) ID { return ID(b) }

// ToID attempts to convert a byte slice into an ID.
func ToID(bytes []byte) (ID, error) {
	if len(bytes) != idLen {
		return ID{}, errWrongLen
	}
	var id ID
	copy(id[:], bytes)
	return id, nil
}

// FromString parses the hex representation of an ID.
func FromString(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, err
	}
	return ToID(b)
}

// Bytes returns the bytes of this ID.
func (id ID) Bytes() []byte { return id[:] }

// String returns the hex representation of this ID.
func (id ID) String() string { return hex.EncodeToString(id[:]) }

// Key returns a value usable as a map key. For ID this is itself, since arrays
// are comparable in Go.
func (id ID) Key() [idLen]byte { return id }

// Compare returns -1, 0 or 1 depending on whether id sorts before, equal to,
// or after other, using byte-lexicographic order.
func (id ID) Compare(other ID) int { return bytes.Compare(id[:], other[:]) }

// Less reports whether id sorts strictly before other.
func (id ID) Less(other ID) bool { return id.Compare(other) < 0 }

// Prefix mixes extra bytes into a copy of id; used to derive per-index
// sub-identifiers deterministically (e.g. edge keys) without needing a new
// hash input buffer at each call site.
func (id ID) Prefix(prefixes ...uint64) ID {
	packer := make([]byte, 0, len(id)+8*len(prefixes))
	for _, p := range prefixes {
		var buf [8]byte
		for i := 0; i < 8; i++ {
			buf[i] = byte(p >> (8 * uint(i)))
		}
		packer = append(packer, buf[:]...)
	}
	packer = append(packer, id[:]...)
	return ID(sha256.Sum256(packer))
}

// SortIDs sorts a slice of IDs in place, byte-lexicographic ascending.
func SortIDs(lst []ID) {
	sort.Slice(lst, func(i, j int) bool { return lst[i].Less(lst[j]) })
}

// IsSortedAndUniqueIDs reports whether lst is strictly sorted ascending with
// no duplicate elements.
func IsSortedAndUniqueIDs(lst []ID) bool {
	for i := 1; i < len(lst); i++ {
		if !lst[i-1].Less(lst[i]) {
			return false
		}
	}
	return true
}
