// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gossipchain/difficulty"
	"github.com/bitmark-inc/gossipchain/fault"
)

// mining intervals
const (
	progressInterval = 100000 // nonces between progress messages
	cancelInterval   = 1024   // nonces between context checks
)

// New - stamp the current time on a template and mine it
func New(ctx context.Context, template Template, target difficulty.Target, log *logger.L) (Block, error) {
	return Mine(ctx, template, time.Now().Unix(), target, log)
}

// Mine - search nonces from zero upwards until the hash meets the
// target
//
// there is no upper bound on the number of attempts, only the
// context can stop the search early; log may be nil
func Mine(ctx context.Context, template Template, timestamp int64, target difficulty.Target, log *logger.L) (Block, error) {

	if nil != log {
		log.Infof("mining block: %d", template.Index)
	}

	prefix, suffix := canonicalParts(template.Index, timestamp, template.Data, template.PreviousHash)
	buffer := make([]byte, 0, len(prefix)+20+len(suffix))

	for nonce := uint64(0); ; nonce += 1 {
		if 0 == nonce%cancelInterval {
			select {
			case <-ctx.Done():
				return Block{}, fault.ErrMiningCancelled
			default:
			}
		}
		if nil != log && 0 == nonce%progressInterval {
			log.Debugf("nonce: %d", nonce)
		}

		buffer = append(buffer[:0], prefix...)
		buffer = strconv.AppendUint(buffer, nonce, 10)
		buffer = append(buffer, suffix...)
		digest := sha256.Sum256(buffer)

		if target.Meets(digest[:]) {
			b := Block{
				Index:        template.Index,
				Nonce:        nonce,
				Timestamp:    timestamp,
				Data:         template.Data,
				PreviousHash: template.PreviousHash,
				Hash:         hex.EncodeToString(digest[:]),
			}
			if nil != log {
				log.Infof("mined: nonce: %d  hash: %s  bits: %s", nonce, b.Hash, difficulty.BitString(digest[:], target.Encoding))
			}
			return b, nil
		}
	}
}
