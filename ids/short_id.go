// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"bytes"
	"encoding/hex"
	"errors"
	"sort"
)

const shortIDLen = 20

var errWrongShortLen = errors.New("wrong length byte slice provided for short id")

// ShortID is a 20 byte identifier, used for validator node ids and addresses.
// The narrow string/bech32m rendering of an address is an external concern
// (see spec.md §1); ShortID only provides equality, ordering and a debug
// string form.
type ShortID [shortIDLen]byte

// ShortEmpty is the all-zero ShortID.
var ShortEmpty = ShortID{}

// NewShortID creates a ShortID from a 20 byte array.
func NewShortID(b [shortIDLen]byte) ShortID { return ShortID(b) }

// ToShortID attempts to convert a byte slice into a ShortID.
func ToShortID(b []byte) (ShortID, error) {
	if len(b) != shortIDLen {
		return ShortID{}, errWrongShortLen
	}
	var id ShortID
	copy(id[:], b)
	return id, nil
}

// Bytes returns the bytes of this ShortID.
func (id ShortID) Bytes() []byte { return id[:] }

// String returns the hex representation of this ShortID.
func (id ShortID) String() string { return hex.EncodeToString(id[:]) }

// Compare returns -1, 0 or 1 depending on byte-lexicographic order.
func (id ShortID) Compare(other ShortID) int { return bytes.Compare(id[:], other[:]) }

// Less reports whether id sorts strictly before other.
func (id ShortID) Less(other ShortID) bool { return id.Compare(other) < 0 }

// SortShortIDs sorts a slice of ShortIDs in place, ascending.
func SortShortIDs(lst []ShortID) {
	sort.Slice(lst, func(i, j int) bool { return lst[i].Less(lst[j]) })
}
