// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gossipchain/block"
	"github.com/bitmark-inc/gossipchain/protocol"
)

func TestClassifyChainResponse(t *testing.T) {
	c := makeChain(t, "response", 2)
	data := mustMarshal(t, protocol.ChainResponse{
		Blocks:   c.Blocks(),
		Receiver: "peer-a",
	})

	kind, item := protocol.Classify(data)
	assert.Equal(t, protocol.KindChainResponse, kind, "wrong kind")

	r, ok := item.(protocol.ChainResponse)
	assert.True(t, ok, "wrong item type")
	assert.Equal(t, "peer-a", r.Receiver, "wrong receiver")
	assert.Equal(t, c.Blocks(), r.Blocks, "wrong blocks")
}

func TestClassifyEmptyChainResponse(t *testing.T) {
	kind, item := protocol.Classify([]byte(`{"blocks":[],"receiver":"peer-a"}`))
	assert.Equal(t, protocol.KindChainResponse, kind, "wrong kind")
	assert.Equal(t, 0, len(item.(protocol.ChainResponse).Blocks), "wrong block count")
}

func TestClassifyLocalChainRequest(t *testing.T) {
	kind, item := protocol.Classify([]byte(`{"from_peer_id":"peer-b"}`))
	assert.Equal(t, protocol.KindLocalChainRequest, kind, "wrong kind")
	assert.Equal(t, protocol.LocalChainRequest{FromPeerID: "peer-b"}, item, "wrong request")
}

func TestClassifyBlock(t *testing.T) {
	g := block.Genesis(easy)
	kind, item := protocol.Classify(mustMarshal(t, g))
	assert.Equal(t, protocol.KindBlock, kind, "wrong kind")
	assert.Equal(t, g, item, "wrong block")
}

func TestClassifyOrder(t *testing.T) {
	// both response and request keys present: response is tried first
	kind, _ := protocol.Classify([]byte(`{"blocks":[],"receiver":"x","from_peer_id":"y"}`))
	assert.Equal(t, protocol.KindChainResponse, kind, "wrong kind")
}

func TestClassifyIgnoresUnknownKeys(t *testing.T) {
	kind, item := protocol.Classify([]byte(`{"from_peer_id":"peer-c","extra":[1,2,3]}`))
	assert.Equal(t, protocol.KindLocalChainRequest, kind, "wrong kind")
	assert.Equal(t, "peer-c", item.(protocol.LocalChainRequest).FromPeerID, "wrong peer")
}

func TestClassifyUnparseable(t *testing.T) {
	payloads := []string{
		``,
		`garbage`,
		`null`,
		`[]`,
		`"text"`,
		`{}`,
		`{"receiver":"x"}`,
		`{"blocks":null,"receiver":"x"}`,
		`{"blocks":[{"id":1}],"receiver":"x"}`,
		`{"from_peer_id":null}`,
		`{"from_peer_id":7}`,
		`{"id":1,"nonce":2,"timestamp":3,"data":"d","previous_hash":"p"}`,
		`{"id":-1,"nonce":2,"timestamp":3,"data":"d","previous_hash":"p","hash":"h"}`,
	}

	for _, p := range payloads {
		kind, item := protocol.Classify([]byte(p))
		assert.Equal(t, protocol.KindUnparseable, kind, "wrong kind for: %q", p)
		assert.Nil(t, item, "item returned for: %q", p)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "ChainResponse", protocol.KindChainResponse.String(), "wrong string")
	assert.Equal(t, "LocalChainRequest", protocol.KindLocalChainRequest.String(), "wrong string")
	assert.Equal(t, "Block", protocol.KindBlock.String(), "wrong string")
	assert.Equal(t, "Unparseable", protocol.KindUnparseable.String(), "wrong string")
}
