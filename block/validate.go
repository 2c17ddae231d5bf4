// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"encoding/hex"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gossipchain/difficulty"
	"github.com/bitmark-inc/gossipchain/fault"
)

// Validate - check that a block may follow previous
//
// checks run in a fixed order and the first failure is returned:
// previous hash link, difficulty, index, hash recomputation
func (b Block) Validate(previous Block, target difficulty.Target) error {
	if b.PreviousHash != previous.Hash {
		return fault.ErrInvalidPreviousHash
	}

	digest, err := hex.DecodeString(b.Hash)
	if nil != err || !target.Meets(digest) {
		return fault.ErrInvalidDifficulty
	}

	if b.Index != previous.Index+1 {
		return fault.ErrInvalidBlockIndex
	}

	if b.ComputeHash() != b.Hash {
		return fault.ErrInvalidBlockHash
	}
	return nil
}

// IsValid - Validate reduced to a flag, the failed check is logged
// when log is not nil
func (b Block) IsValid(previous Block, target difficulty.Target, log *logger.L) bool {
	err := b.Validate(previous, target)
	if nil == err {
		return true
	}
	if nil != log {
		switch err {
		case fault.ErrInvalidBlockIndex:
			log.Warnf("block with id: %d is not the next block after: %d", b.Index, previous.Index)
		default:
			log.Warnf("block with id: %d: %s", b.Index, err)
		}
	}
	return false
}
