// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package choices defines the decision lifecycle of a consensus decidable.
// The Avalanche engine tracks each transaction's Status with it; VFP and
// TSDC keep their own state and do not use it.
package choices

import "github.com/timecoin-project/timecoin/ids"

// Status is the decision state of a Decidable.
type Status uint32

const (
	Unknown Status = iota
	Processing
	Rejected
	Accepted
)

func (s Status) String() string {
	switch s {
	case Unknown:
		return "Unknown"
	case Processing:
		return "Processing"
	case Rejected:
		return "Rejected"
	case Accepted:
		return "Accepted"
	default:
		return "Invalid"
	}
}

// Decided reports whether the status is a terminal one.
func (s Status) Decided() bool { return s == Accepted || s == Rejected }

// Valid reports whether s is one of the defined values.
func (s Status) Valid() bool {
	switch s {
	case Unknown, Processing, Rejected, Accepted:
		return true
	default:
		return false
	}
}

// Decidable is anything that moves through the Status lifecycle: called
// once, from a single goroutine, when consensus reaches a final decision.
type Decidable interface {
	ID() ids.ID
	Accept() error
	Reject() error
	Status() Status
}
