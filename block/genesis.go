// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"context"
	"sync"

	"github.com/bitmark-inc/gossipchain/difficulty"
)

// fixed genesis fields
const (
	GenesisTimestamp = 1000000000
	GenesisData      = "genesis"
)

// genesis blocks already mined, by target
var genesis struct {
	sync.Mutex
	blocks map[difficulty.Target]Block
}

// Genesis - the first block of every chain using target
//
// the block depends only on the target so all nodes agree on it; it
// is mined on first use and cached
func Genesis(target difficulty.Target) Block {
	genesis.Lock()
	defer genesis.Unlock()

	if b, ok := genesis.blocks[target]; ok {
		return b
	}

	template := Template{
		Index:        0,
		Data:         GenesisData,
		PreviousHash: target.Prefix + "00",
	}

	// cannot be cancelled so the error is always nil
	b, _ := Mine(context.Background(), template, GenesisTimestamp, target, nil)

	if nil == genesis.blocks {
		genesis.blocks = make(map[difficulty.Target]Block)
	}
	genesis.blocks[target] = b
	return b
}
