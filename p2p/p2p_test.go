// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gossipchain/background"
	"github.com/bitmark-inc/gossipchain/fault"
	"github.com/bitmark-inc/gossipchain/p2p"
	"github.com/bitmark-inc/gossipchain/util"
)

const (
	dir      = "testing"
	category = "testing"
)

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

func testConfiguration() p2p.Configuration {
	return p2p.Configuration{
		Listen:     []string{"127.0.0.1:0"},
		ChainTopic: "chains",
		BlockTopic: "blocks",
		LowWater:   2,
		HighWater:  4,
	}
}

func TestNewNoListenAddrs(t *testing.T) {
	configuration := testConfiguration()
	configuration.Listen = []string{"nowhere"}

	_, err := p2p.New(context.Background(), configuration, logger.New(category))
	assert.Equal(t, fault.ErrNoListenAddrs, err, "wrong error")
}

func TestNewInvalidKey(t *testing.T) {
	configuration := testConfiguration()
	configuration.PrivateKey = "not hex"

	_, err := p2p.New(context.Background(), configuration, logger.New(category))
	assert.Equal(t, fault.ErrInvalidPeerKey, err, "wrong error")
}

func TestNewWithKey(t *testing.T) {
	key := "080112406eb84a3845d33c2a389d7fbea425cbf882047a2ab13084562f06875db47b5fdc2e45a298e6cd0472eeb97cd023c723824e157869d81039794864987c05b212a8"
	configuration := testConfiguration()
	configuration.PrivateKey = key

	n, err := p2p.New(context.Background(), configuration, logger.New(category))
	if nil != err {
		t.Fatalf("new error: %s", err)
	}
	defer n.Close()

	expected, err := util.PeerIDFromHex(key)
	assert.Nil(t, err, "wrong error")
	assert.Equal(t, expected, n.ID(), "wrong peer id")
	assert.NotEqual(t, 0, len(n.AddrInfo().Addrs), "no listening addresses")

	// repeated close is harmless
	n.Close()
}

func TestGossipBetweenNodes(t *testing.T) {
	a, err := p2p.New(context.Background(), testConfiguration(), logger.New(category))
	if nil != err {
		t.Fatalf("new error: %s", err)
	}
	b, err := p2p.New(context.Background(), testConfiguration(), logger.New(category))
	if nil != err {
		t.Fatalf("new error: %s", err)
	}

	processes := background.Start(background.Processes{a, b}, nil)
	defer processes.Stop()

	err = a.Connect(b.AddrInfo())
	assert.Nil(t, err, "connect error")

	select {
	case e := <-a.Events():
		assert.Equal(t, p2p.PeerJoined, e.Kind, "wrong event")
		assert.Equal(t, b.ID(), e.Peer, "wrong peer")
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for peer joined")
	}

	// subscriptions propagate asynchronously so publish until seen
	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case m := <-b.Messages():
			assert.Equal(t, "blocks", m.Topic, "wrong topic")
			assert.Equal(t, a.ID(), m.From, "wrong sender")
			assert.Equal(t, []byte("hello"), m.Data, "wrong data")
			break loop
		case <-ticker.C:
			_ = a.Publish("blocks", []byte("hello"))
		case <-timeout:
			t.Fatal("timeout waiting for message")
		}
	}

	select {
	case m := <-a.Messages():
		t.Errorf("own message delivered: %v", m)
	default:
	}
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "PeerJoined", p2p.PeerJoined.String(), "wrong string")
	assert.Equal(t, "PeerLeft", p2p.PeerLeft.String(), "wrong string")
	assert.Equal(t, "*unknown*", p2p.EventKind(99).String(), "wrong string")
}
