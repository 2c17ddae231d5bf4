// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Block - one immutable entry of the ledger
//
// the JSON field names are the wire format shared with every peer
type Block struct {
	Index        uint64 `json:"id"`
	Nonce        uint64 `json:"nonce"`
	Timestamp    int64  `json:"timestamp"`
	Data         string `json:"data"`
	PreviousHash string `json:"previous_hash"`
	Hash         string `json:"hash"`
}

// Template - the fields of a block that exist before mining
type Template struct {
	Index        uint64
	Data         string
	PreviousHash string
}

// Next - template for a block following this one
func (b Block) Next(data string) Template {
	return Template{
		Index:        b.Index + 1,
		Data:         data,
		PreviousHash: b.Hash,
	}
}

// ComputeHash - recompute the hex digest from the stored fields
func (b Block) ComputeHash() string {
	digest := sha256.Sum256(CanonicalJSON(b.Index, b.Nonce, b.Timestamp, b.Data, b.PreviousHash))
	return hex.EncodeToString(digest[:])
}

// String - short form for log messages
func (b Block) String() string {
	hash := b.Hash
	if len(hash) > 16 {
		hash = hash[:16] + "…"
	}
	return fmt.Sprintf("block[%d] %s", b.Index, hash)
}
