// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gossipchain/block"
	"github.com/bitmark-inc/gossipchain/chain"
	"github.com/bitmark-inc/gossipchain/difficulty"
)

const (
	dir      = "testing"
	category = "testing"
)

var easy = difficulty.Target{Prefix: "0", Encoding: difficulty.Binary}

func setupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "trace",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

func teardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	_ = os.RemoveAll(dir)
}

func TestMain(m *testing.M) {
	setupTestLogger()
	rc := m.Run()
	teardownTestLogger()
	os.Exit(rc)
}

// genesis plus n blocks, data is prefixed by tag so that separately
// built chains differ
func makeChain(t *testing.T, tag string, n int) *chain.Chain {
	c := chain.New(easy, logger.New(category))
	for i := 0; i < n; i += 1 {
		_, err := c.AppendLocal(context.Background(), fmt.Sprintf("%s-%d", tag, i))
		if nil != err {
			t.Fatalf("append local error: %s", err)
		}
	}
	return c
}

// a block extending the tail of c
func nextBlock(t *testing.T, c *chain.Chain, data string) block.Block {
	template, err := c.Next(data)
	if nil != err {
		t.Fatalf("next error: %s", err)
	}
	b, err := block.Mine(context.Background(), template, 1600000000, easy, nil)
	if nil != err {
		t.Fatalf("mine error: %s", err)
	}
	return b
}

func mustMarshal(t *testing.T, item interface{}) []byte {
	data, err := json.Marshal(item)
	if nil != err {
		t.Fatalf("marshal error: %s", err)
	}
	return data
}
