// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

// Errs accumulates the first non-nil error passed to Add and ignores every
// subsequent one, so a long sequence of fallible Pack/Unpack or cleanup
// calls can be written without an if err != nil after every line.
type Errs struct {
	Err error
}

// Add records err if no error has been recorded yet.
func (errs *Errs) Add(err error) {
	if errs.Err == nil {
		errs.Err = err
	}
}

// Errored reports whether an error has been recorded.
func (errs *Errs) Errored() bool { return errs.Err != nil }
