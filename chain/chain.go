// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain - an ordered sequence of blocks starting at genesis
//
// A Chain is not safe for concurrent use; the node event loop is its
// only owner.  Chains received from peers are built with FromBlocks
// and are only ever compared with, and possibly substituted for, the
// local chain.
package chain

import (
	"context"
	"encoding/json"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gossipchain/block"
	"github.com/bitmark-inc/gossipchain/difficulty"
	"github.com/bitmark-inc/gossipchain/fault"
)

// Chain - the blocks and the target they were mined against
type Chain struct {
	target  difficulty.Target
	genesis block.Block
	blocks  []block.Block
	log     *logger.L
}

// New - a chain holding only the genesis block
func New(target difficulty.Target, log *logger.L) *Chain {
	g := block.Genesis(target)
	return &Chain{
		target:  target,
		genesis: g,
		blocks:  []block.Block{g},
		log:     log,
	}
}

// FromBlocks - wrap blocks received from a peer, nothing is validated
// until Validate or Compare is called
func FromBlocks(target difficulty.Target, blocks []block.Block, log *logger.L) *Chain {
	b := make([]block.Block, len(blocks))
	copy(b, blocks)
	return &Chain{
		target:  target,
		genesis: block.Genesis(target),
		blocks:  b,
		log:     log,
	}
}

// Target - difficulty used for validation
func (c *Chain) Target() difficulty.Target {
	return c.target
}

// Length - number of blocks including genesis
func (c *Chain) Length() int {
	return len(c.blocks)
}

// Blocks - a copy of all blocks
func (c *Chain) Blocks() []block.Block {
	b := make([]block.Block, len(c.blocks))
	copy(b, c.blocks)
	return b
}

// Tail - the most recent block
func (c *Chain) Tail() (block.Block, error) {
	if 0 == len(c.blocks) {
		return block.Block{}, fault.ErrEmptyChain
	}
	return c.blocks[len(c.blocks)-1], nil
}

// Next - template for a block extending the tail
func (c *Chain) Next(data string) (block.Template, error) {
	tail, err := c.Tail()
	if nil != err {
		return block.Template{}, err
	}
	return tail.Next(data), nil
}

// AppendLocal - mine a block carrying data on top of the tail and
// append it unconditionally
//
// this blocks until the proof-of-work search finishes, the event loop
// uses Next, a miner and AppendMined instead
func (c *Chain) AppendLocal(ctx context.Context, data string) (block.Block, error) {
	template, err := c.Next(data)
	if nil != err {
		return block.Block{}, err
	}
	b, err := block.New(ctx, template, c.target, c.log)
	if nil != err {
		return block.Block{}, err
	}
	c.blocks = append(c.blocks, b)
	return b, nil
}

// AppendMined - append a locally mined block
//
// the block is trusted, but if the tail moved while it was being
// mined it no longer links and ErrStaleBlock is returned
func (c *Chain) AppendMined(b block.Block) error {
	tail, err := c.Tail()
	if nil != err {
		return err
	}
	if b.PreviousHash != tail.Hash || b.Index != tail.Index+1 {
		return fault.ErrStaleBlock
	}
	c.blocks = append(c.blocks, b)
	return nil
}

// TryAppendRemote - append a block from a peer if it validly extends
// the tail; never rewinds or replaces history
func (c *Chain) TryAppendRemote(b block.Block) bool {
	tail, err := c.Tail()
	if nil != err {
		return false
	}
	if !b.IsValid(tail, c.target, c.log) {
		if nil != c.log {
			c.log.Warnf("could not add %s: invalid", b)
		}
		return false
	}
	c.blocks = append(c.blocks, b)
	return true
}

// Validate - true if the chain starts at genesis and every adjacent
// pair of blocks validates
func (c *Chain) Validate() bool {
	return nil == c.validate()
}

func (c *Chain) validate() error {
	if 0 == len(c.blocks) {
		return fault.ErrEmptyChain
	}
	if c.blocks[0] != c.genesis {
		return fault.ErrInvalidGenesis
	}
	for i := 1; i < len(c.blocks); i += 1 {
		if err := c.blocks[i].Validate(c.blocks[i-1], c.target); nil != err {
			if nil != c.log {
				c.log.Warnf("chain invalid at block: %d  error: %s", i, err)
			}
			return err
		}
	}
	return nil
}

// MarshalJSON - a chain is sent as its array of blocks
func (c *Chain) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.blocks)
}

// PrettyJSON - indented block array for display
func (c *Chain) PrettyJSON() ([]byte, error) {
	return json.MarshalIndent(c.blocks, "", "  ")
}
