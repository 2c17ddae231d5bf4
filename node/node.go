// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node - the single event loop that owns the local chain
//
// Every source of work (console lines, queued chain responses, the
// one-shot init timer, inbound gossip, peer changes and finished
// mining jobs) is a channel; exactly one event is handled per
// iteration so the chain is never shared between goroutines.
package node

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	peerlib "github.com/libp2p/go-libp2p-core/peer"

	"github.com/bitmark-inc/gossipchain/block"
	"github.com/bitmark-inc/gossipchain/chain"
	"github.com/bitmark-inc/gossipchain/fault"
	"github.com/bitmark-inc/gossipchain/miner"
	"github.com/bitmark-inc/gossipchain/p2p"
	"github.com/bitmark-inc/gossipchain/protocol"
	"github.com/bitmark-inc/gossipchain/util"
)

// DefaultInitDelay - wait before asking a peer for its chain
const DefaultInitDelay = time.Second

// console commands
const (
	listPeersCommand   = "ls p"
	listChainCommand   = "ls c"
	createBlockCommand = "create b"
)

// Transport - the gossip network as seen by the loop
type Transport interface {
	ID() peerlib.ID
	Publish(topic string, data []byte) error
	Messages() <-chan p2p.Message
	Events() <-chan p2p.Event
}

// Miner - proof-of-work worker
type Miner interface {
	Submit(template block.Template) string
	Results() <-chan miner.Result
}

// Responses - queue of chain responses waiting to be published
type Responses interface {
	protocol.Responder
	Chan() <-chan protocol.ChainResponse
}

// Configuration - loop settings
type Configuration struct {
	InitDelay       time.Duration
	Topics          protocol.Topics
	DuplicateExpiry time.Duration
}

// Node - event loop state
type Node struct {
	chain     *chain.Chain
	handler   *protocol.Handler
	transport Transport
	miner     Miner
	responses Responses
	initDelay time.Duration
	out       io.Writer

	pending []string // payloads waiting to be mined, head is in progress
	job     string   // outstanding mining job, empty when idle

	log *logger.L
}

// New - create a loop for the chain; console replies are written to out
func New(configuration Configuration, c *chain.Chain, transport Transport, m Miner, responses Responses, out io.Writer, log *logger.L) *Node {
	handlerConfiguration := protocol.Configuration{
		ID:              transport.ID(),
		Topics:          configuration.Topics,
		DuplicateExpiry: configuration.DuplicateExpiry,
	}
	handler := protocol.NewHandler(handlerConfiguration, c, transport, responses, logger.New("protocol"))

	initDelay := configuration.InitDelay
	if initDelay <= 0 {
		initDelay = DefaultInitDelay
	}

	return &Node{
		chain:     c,
		handler:   handler,
		transport: transport,
		miner:     m,
		responses: responses,
		initDelay: initDelay,
		out:       out,
		log:       log,
	}
}

// Run - handle events until the context is cancelled or a fatal error
// occurs
//
// lines may be nil or closed, the loop continues without a console
func (n *Node) Run(ctx context.Context, lines <-chan string) error {
	log := n.log
	log.Infof("starting…  peer id: %s", n.transport.ID())

	initTimer := time.NewTimer(n.initDelay)
	defer initTimer.Stop()
	initC := initTimer.C

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down…")
			return nil

		case line, ok := <-lines:
			if !ok {
				log.Info("console closed")
				lines = nil
				continue
			}
			if err := n.command(line); nil != err {
				return fault.Fatal("command", err)
			}

		case response := <-n.responses.Chan():
			util.LogInfo(log, util.CoCyan, fmt.Sprintf("<<-- chain response to: %s  blocks: %d", response.Receiver, len(response.Blocks)))
			if err := n.handler.PublishResponse(response); nil != err {
				log.Errorf("publish response error: %s", err)
			}

		case <-initC:
			initC = nil
			log.Info("sending init event")
			sent, err := n.handler.Init()
			if nil != err {
				log.Errorf("init request error: %s", err)
			} else if !sent {
				log.Info("no peers known, keeping local chain")
			}

		case m := <-n.transport.Messages():
			if err := n.handler.HandleMessage(m.From, m.Topic, m.Data); nil != err {
				return err
			}

		case e := <-n.transport.Events():
			switch e.Kind {
			case p2p.PeerJoined:
				n.handler.PeerJoined(e.Peer)
			case p2p.PeerLeft:
				n.handler.PeerLeft(e.Peer)
			}

		case r := <-n.miner.Results():
			if err := n.mined(r); nil != err {
				return fault.Fatal("mined", err)
			}
		}
	}
}

// one console line; "ls p" must match exactly, the other commands
// are prefixes and anything after "create b" is the block data with
// surrounding blanks removed
func (n *Node) command(line string) error {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case "" == line:
		return nil

	case listPeersCommand == line:
		n.log.Info("discovered peers:")
		for _, id := range n.handler.Peers().List() {
			n.log.Infof("peer: %s", id)
			fmt.Fprintln(n.out, id)
		}

	case strings.HasPrefix(line, listChainCommand):
		data, err := n.chain.PrettyJSON()
		if nil != err {
			n.log.Errorf("chain display error: %s", err)
			return nil
		}
		n.log.Infof("local chain length: %d", n.chain.Length())
		fmt.Fprintln(n.out, string(data))

	case strings.HasPrefix(line, createBlockCommand):
		data := strings.TrimSpace(strings.TrimPrefix(line, createBlockCommand))
		n.pending = append(n.pending, data)
		n.log.Infof("queued block data: %q  pending: %d", data, len(n.pending))
		return n.startMining()

	default:
		n.log.Errorf("unknown command: %q", line)
	}
	return nil
}

// submit the head of the pending list unless a job is outstanding
func (n *Node) startMining() error {
	if "" != n.job || 0 == len(n.pending) {
		return nil
	}
	template, err := n.chain.Next(n.pending[0])
	if nil != err {
		return err
	}
	n.job = n.miner.Submit(template)
	n.log.Debugf("job: %s  index: %d", n.job, template.Index)
	return nil
}

// a finished job; a block whose tail moved is mined again
func (n *Node) mined(r miner.Result) error {
	if r.Job != n.job {
		n.log.Warnf("ignore result for job: %s", r.Job)
		return nil
	}
	n.job = ""

	switch err := r.Err; {
	case nil != err:
		n.log.Errorf("mining %q failed: %s", n.pending[0], err)
		n.pending = n.pending[1:]

	default:
		err := n.chain.AppendMined(r.Block)
		if fault.ErrStaleBlock == err {
			n.log.Warnf("tail moved while mining %s, retrying", r.Block)
			break
		}
		if nil != err {
			return err
		}
		n.pending = n.pending[1:]
		n.log.Infof("created new %s", r.Block)
		if err := n.handler.BroadcastBlock(r.Block); nil != err {
			n.log.Errorf("broadcast error: %s", err)
		}
	}
	return n.startMining()
}
