// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package protocol - chain synchronisation over gossip topics
//
// Inbound payloads are classified and routed to the chain; outbound
// requests, responses and blocks are serialised and published.  A
// Handler is driven only from the node event loop.
package protocol

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/bitmark-inc/gossipchain/protocol Publisher,Responder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
	cache "github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/gossipchain/block"
	"github.com/bitmark-inc/gossipchain/chain"
	"github.com/bitmark-inc/gossipchain/fault"
	"github.com/bitmark-inc/gossipchain/util"
)

// Publisher - publish a payload on a gossip topic
type Publisher interface {
	Publish(topic string, data []byte) error
}

// Configuration - everything a handler needs, built once at startup
type Configuration struct {
	ID              peerlib.ID
	Topics          Topics
	DuplicateExpiry time.Duration // zero disables duplicate suppression
}

// Handler - routes sync messages between the network and the chain
type Handler struct {
	id        peerlib.ID
	topics    Topics
	chain     *chain.Chain
	publisher Publisher
	responder Responder
	peers     *Registry
	seen      *cache.Cache
	log       *logger.L
}

// NewHandler - create a handler for the local chain
func NewHandler(configuration Configuration, c *chain.Chain, publisher Publisher, responder Responder, log *logger.L) *Handler {
	h := &Handler{
		id:        configuration.ID,
		topics:    configuration.Topics,
		chain:     c,
		publisher: publisher,
		responder: responder,
		peers:     NewRegistry(),
		log:       log,
	}
	if configuration.DuplicateExpiry > 0 {
		h.seen = cache.New(configuration.DuplicateExpiry, 2*configuration.DuplicateExpiry)
	}
	return h
}

// Peers - the discovery registry
func (h *Handler) Peers() *Registry {
	return h.peers
}

// PeerJoined - discovery found a peer
func (h *Handler) PeerJoined(id peerlib.ID) {
	if h.peers.Add(id) {
		util.LogInfo(h.log, util.CoGreen, fmt.Sprintf("peer joined: %s  known: %d", id.ShortString(), h.peers.Count()))
	}
}

// PeerLeft - discovery lost a peer
func (h *Handler) PeerLeft(id peerlib.ID) {
	if h.peers.Remove(id) {
		util.LogInfo(h.log, util.CoYellow, fmt.Sprintf("peer left: %s  known: %d", id.ShortString(), h.peers.Count()))
	}
}

// HandleMessage - classify one inbound payload and apply it
//
// only fatal errors are returned, anything else is logged and the
// message dropped
func (h *Handler) HandleMessage(from peerlib.ID, topic string, data []byte) error {

	if h.isDuplicate(from, topic, data) {
		h.log.Debugf("duplicate message on: %s from: %s", topic, from.ShortString())
		return nil
	}

	kind, item := Classify(data)
	switch kind {
	case KindChainResponse:
		return h.handleChainResponse(from, item.(ChainResponse))

	case KindLocalChainRequest:
		h.handleLocalChainRequest(from, item.(LocalChainRequest))

	case KindBlock:
		b := item.(block.Block)
		util.LogInfo(h.log, util.CoCyan, fmt.Sprintf("-->> received new %s from: %s", b, from.ShortString()))
		if !h.chain.TryAppendRemote(b) {
			h.log.Warnf("rejected %s from: %s", b, from.ShortString())
		}

	default:
		h.log.Errorf("couldn't deserialize msg: %q from: %s", strings.ToValidUTF8(string(data), "\ufffd"), from)
	}
	return nil
}

func (h *Handler) handleChainResponse(from peerlib.ID, response ChainResponse) error {
	if response.Receiver != h.id.String() {
		h.log.Debugf("ignore chain response for: %s", response.Receiver)
		return nil
	}

	util.LogInfo(h.log, util.CoCyan, fmt.Sprintf("-->> chain response from: %s  blocks: %d", from.ShortString(), len(response.Blocks)))
	for _, b := range response.Blocks {
		h.log.Debugf("response %s", b)
	}

	remote := chain.FromBlocks(h.chain.Target(), response.Blocks, h.log)
	replaced, err := h.chain.Reconcile(remote)
	if nil != err {
		return fault.Fatal("reconcile", err)
	}
	if !replaced {
		h.log.Infof("kept local chain, length: %d", h.chain.Length())
	}
	return nil
}

func (h *Handler) handleLocalChainRequest(from peerlib.ID, request LocalChainRequest) {
	if request.FromPeerID != h.id.String() {
		h.log.Debugf("ignore chain request for: %s", request.FromPeerID)
		return
	}

	h.log.Infof("sending local chain to: %s", from)
	response := ChainResponse{
		Blocks:   h.chain.Blocks(),
		Receiver: from.String(),
	}
	if err := h.responder.Send(response); nil != err {
		h.log.Errorf("error sending response via channel: %s", err)
	}
}

// PublishResponse - publish a queued chain response
func (h *Handler) PublishResponse(response ChainResponse) error {
	return h.publish(h.topics.Chain, response)
}

// BroadcastBlock - publish a newly mined block
func (h *Handler) BroadcastBlock(b block.Block) error {
	util.LogInfo(h.log, util.CoGreen, fmt.Sprintf("<<-- broadcasting new %s", b))
	return h.publish(h.topics.Block, b)
}

// Init - ask one known peer for its chain
//
// a single peer is asked so that only one full chain comes back;
// returns false if no peer is known yet
func (h *Handler) Init() (bool, error) {
	h.log.Infof("connected nodes: %d", h.peers.Count())

	id, ok := h.peers.Pick()
	if !ok {
		return false, nil
	}

	util.LogInfo(h.log, util.CoGreen, fmt.Sprintf("<<-- requesting chain from: %s", id.ShortString()))
	request := LocalChainRequest{
		FromPeerID: id.String(),
	}
	return true, h.publish(h.topics.Chain, request)
}

func (h *Handler) publish(topic string, item interface{}) error {
	data, err := json.Marshal(item)
	if nil != err {
		return err
	}
	return h.publisher.Publish(topic, data)
}

// duplicate suppression per sender, identical requests from
// different peers must each be answered
func (h *Handler) isDuplicate(from peerlib.ID, topic string, data []byte) bool {
	if nil == h.seen {
		return false
	}
	key := contentKey(from, topic, data)
	if _, found := h.seen.Get(key); found {
		return true
	}
	h.seen.SetDefault(key, struct{}{})
	return false
}

func contentKey(from peerlib.ID, topic string, data []byte) string {
	digest := sha256.Sum256(append([]byte(string(from)+"\x00"+topic+"\x00"), data...))
	return hex.EncodeToString(digest[:])
}
