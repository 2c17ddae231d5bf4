// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	peerlib "github.com/libp2p/go-libp2p-core/peer"

	"github.com/bitmark-inc/gossipchain/block"
	"github.com/bitmark-inc/gossipchain/chain"
	"github.com/bitmark-inc/gossipchain/difficulty"
	"github.com/bitmark-inc/gossipchain/miner"
	"github.com/bitmark-inc/gossipchain/node"
	"github.com/bitmark-inc/gossipchain/p2p"
	"github.com/bitmark-inc/gossipchain/protocol"
)

const (
	dir      = "testing"
	category = "testing"

	local  = peerlib.ID("local-peer")
	remote = peerlib.ID("remote-peer")

	timeout = 5 * time.Second
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

type publication struct {
	topic string
	data  []byte
}

// network double, every publish is recorded in order; inbound
// channels are unbuffered so a send returns once the loop has taken it
type fakeTransport struct {
	messages  chan p2p.Message
	events    chan p2p.Event
	published chan publication
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		messages:  make(chan p2p.Message),
		events:    make(chan p2p.Event),
		published: make(chan publication, 16),
	}
}

func (f *fakeTransport) ID() peerlib.ID {
	return local
}

func (f *fakeTransport) Publish(topic string, data []byte) error {
	f.published <- publication{topic: topic, data: data}
	return nil
}

func (f *fakeTransport) Messages() <-chan p2p.Message {
	return f.messages
}

func (f *fakeTransport) Events() <-chan p2p.Event {
	return f.events
}

// miner double, the test decides when and what a job returns
type fakeMiner struct {
	count   int
	jobs    chan miner.Job
	results chan miner.Result
}

func newFakeMiner() *fakeMiner {
	return &fakeMiner{
		jobs:    make(chan miner.Job, 4),
		results: make(chan miner.Result, 4),
	}
}

func (f *fakeMiner) Submit(template block.Template) string {
	f.count += 1
	job := fmt.Sprintf("%04x", f.count)
	f.jobs <- miner.Job{ID: job, Template: template}
	return job
}

func (f *fakeMiner) Results() <-chan miner.Result {
	return f.results
}

// console output, one entry per write
type lineWriter chan string

func (w lineWriter) Write(p []byte) (int, error) {
	w <- string(p)
	return len(p), nil
}

type harness struct {
	transport *fakeTransport
	console   chan string
	output    lineWriter
	chain     *chain.Chain
	cancel    context.CancelFunc
	result    chan error
}

func start(t *testing.T, c *chain.Chain, m node.Miner, responses node.Responses, initDelay time.Duration) *harness {
	h := &harness{
		transport: newFakeTransport(),
		console:   make(chan string),
		output:    make(lineWriter, 16),
		chain:     c,
		result:    make(chan error, 1),
	}

	configuration := node.Configuration{
		InitDelay: initDelay,
		Topics:    protocol.DefaultTopics(),
	}
	n := node.New(configuration, c, h.transport, m, responses, h.output, logger.New(category))

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.result <- n.Run(ctx, h.console)
	}()
	return h
}

func (h *harness) send(t *testing.T, line string) {
	select {
	case h.console <- line:
	case <-time.After(timeout):
		t.Fatalf("timeout sending: %q", line)
	}
}

func (h *harness) next(t *testing.T) publication {
	select {
	case p := <-h.transport.published:
		return p
	case <-time.After(timeout):
		t.Fatal("timeout waiting for publication")
	}
	return publication{}
}

func (h *harness) read(t *testing.T) string {
	select {
	case s := <-h.output:
		return s
	case <-time.After(timeout):
		t.Fatal("timeout waiting for output")
	}
	return ""
}

func (h *harness) stop(t *testing.T) error {
	h.cancel()
	select {
	case err := <-h.result:
		return err
	case <-time.After(timeout):
		t.Fatal("loop did not stop")
	}
	return nil
}
