// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/json"

	"github.com/bitmark-inc/gossipchain/block"
	"github.com/bitmark-inc/gossipchain/fault"
)

// required keys of each schema; unknown keys are ignored
var (
	chainResponseKeys     = []string{"blocks", "receiver"}
	localChainRequestKeys = []string{"from_peer_id"}
	blockKeys             = []string{"id", "nonce", "timestamp", "data", "previous_hash", "hash"}
)

// Classify - decode a payload as the first matching schema
//
// ChainResponse is tried first, then LocalChainRequest, then Block.
// The value returned is a ChainResponse, LocalChainRequest,
// block.Block or nil for KindUnparseable.
func Classify(data []byte) (Kind, interface{}) {
	if r, err := decodeChainResponse(data); nil == err {
		return KindChainResponse, r
	}
	if r, err := decodeLocalChainRequest(data); nil == err {
		return KindLocalChainRequest, r
	}
	if b, err := decodeBlock(data); nil == err {
		return KindBlock, b
	}
	return KindUnparseable, nil
}

func decodeChainResponse(data []byte) (ChainResponse, error) {
	fields, err := requireKeys(data, chainResponseKeys)
	if nil != err {
		return ChainResponse{}, err
	}

	var receiver string
	if err := json.Unmarshal(fields["receiver"], &receiver); nil != err {
		return ChainResponse{}, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(fields["blocks"], &items); nil != err {
		return ChainResponse{}, err
	}
	if nil == items {
		return ChainResponse{}, fault.ErrUnparseableMessage
	}

	blocks := make([]block.Block, len(items))
	for i, item := range items {
		b, err := decodeBlock(item)
		if nil != err {
			return ChainResponse{}, err
		}
		blocks[i] = b
	}

	return ChainResponse{Blocks: blocks, Receiver: receiver}, nil
}

func decodeLocalChainRequest(data []byte) (LocalChainRequest, error) {
	if _, err := requireKeys(data, localChainRequestKeys); nil != err {
		return LocalChainRequest{}, err
	}
	var r LocalChainRequest
	if err := json.Unmarshal(data, &r); nil != err {
		return LocalChainRequest{}, err
	}
	return r, nil
}

func decodeBlock(data []byte) (block.Block, error) {
	if _, err := requireKeys(data, blockKeys); nil != err {
		return block.Block{}, err
	}
	var b block.Block
	if err := json.Unmarshal(data, &b); nil != err {
		return block.Block{}, err
	}
	return b, nil
}

// data must be a JSON object holding every key with a non-null value
func requireKeys(data []byte, keys []string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); nil != err {
		return nil, err
	}
	if nil == fields {
		return nil, fault.ErrUnparseableMessage
	}
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || "null" == string(v) {
			return nil, fault.ErrUnparseableMessage
		}
	}
	return fields, nil
}
