// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

// AssertNoError logs a Fatal if err is non-nil. It's used at startup for
// invariants that should never fail outside of a misconfigured deployment
// (e.g. failing to open the configured database), where continuing would
// just produce more confusing failures downstream.
func AssertNoError(log Logger, err error, msg string) {
	if err != nil {
		log.Fatal("%s: %s", msg, err)
	}
}

// AssertTrue logs a Fatal with msg if cond is false.
func AssertTrue(log Logger, cond bool, msg string) {
	if !cond {
		log.Fatal("assertion failed: %s", msg)
	}
}
