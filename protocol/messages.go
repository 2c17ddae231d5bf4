// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"github.com/bitmark-inc/gossipchain/block"
)

// default topic names
const (
	DefaultChainTopic = "chains"
	DefaultBlockTopic = "blocks"
)

// Topics - gossip topic names
//
// the chain topic carries ChainResponse and LocalChainRequest, the
// block topic carries single mined blocks
type Topics struct {
	Chain string
	Block string
}

// DefaultTopics - topic names used by the reference network
func DefaultTopics() Topics {
	return Topics{
		Chain: DefaultChainTopic,
		Block: DefaultBlockTopic,
	}
}

// ChainResponse - a full chain addressed to one peer
type ChainResponse struct {
	Blocks   []block.Block `json:"blocks"`
	Receiver string        `json:"receiver"`
}

// LocalChainRequest - ask the named peer for its chain
type LocalChainRequest struct {
	FromPeerID string `json:"from_peer_id"`
}

// Kind - classification of an inbound payload
type Kind int

// all kinds, in the order they are tried
const (
	KindChainResponse Kind = iota
	KindLocalChainRequest
	KindBlock
	KindUnparseable
)

// String - kind name for log messages
func (k Kind) String() string {
	switch k {
	case KindChainResponse:
		return "ChainResponse"
	case KindLocalChainRequest:
		return "LocalChainRequest"
	case KindBlock:
		return "Block"
	default:
		return "Unparseable"
	}
}
