// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"github.com/bitmark-inc/gossipchain/fault"
)

// Ordering - result of fork choice between a local and remote chain
type Ordering int

// possible orderings
const (
	Incomparable Ordering = iota
	LocalWins
	RemoteWins
)

// Compare - longest valid chain fork choice
//
// a valid chain beats an invalid one; between two valid chains the
// longer wins and equal lengths keep the local chain; two invalid
// chains cannot be ordered.  Only length is considered, not the
// cumulative work of the blocks.
func (c *Chain) Compare(remote *Chain) Ordering {
	localValid := c.Validate()
	remoteValid := remote.Validate()

	switch {
	case !localValid && !remoteValid:
		return Incomparable
	case !localValid:
		return RemoteWins
	case !remoteValid:
		return LocalWins
	case remote.Length() > c.Length():
		return RemoteWins
	default:
		return LocalWins
	}
}

// Reconcile - replace the local blocks with the remote ones if the
// remote chain wins
//
// two invalid chains return ErrBothChainsInvalid and the local chain
// is left untouched
func (c *Chain) Reconcile(remote *Chain) (bool, error) {
	switch c.Compare(remote) {
	case RemoteWins:
		c.blocks = remote.Blocks()
		if nil != c.log {
			c.log.Infof("replaced local chain, new length: %d", len(c.blocks))
		}
		return true, nil
	case LocalWins:
		return false, nil
	default:
		return false, fault.ErrBothChainsInvalid
	}
}

// String - ordering name
func (o Ordering) String() string {
	switch o {
	case Incomparable:
		return "Incomparable"
	case LocalWins:
		return "LocalWins"
	case RemoteWins:
		return "RemoteWins"
	default:
		return "*Unknown*"
	}
}
