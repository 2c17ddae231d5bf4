// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package p2p - libp2p host, gossip topics and local peer discovery
//
// Inbound gossip and peer changes are delivered on channels so that
// the event loop never touches the network goroutines directly.
package p2p

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	libp2p "github.com/libp2p/go-libp2p"
	connmgr "github.com/libp2p/go-libp2p-connmgr"
	p2pcore "github.com/libp2p/go-libp2p-core"
	crypto "github.com/libp2p/go-libp2p-core/crypto"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	tls "github.com/libp2p/go-libp2p-tls"
	"github.com/libp2p/go-libp2p/p2p/discovery"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/bitmark-inc/gossipchain/counter"
	"github.com/bitmark-inc/gossipchain/fault"
	"github.com/bitmark-inc/gossipchain/util"
)

// defaults for the peering section
const (
	DefaultMdnsTag      = "gossipchain"
	DefaultMdnsInterval = 10 // seconds
	DefaultLowWater     = 16
	DefaultHighWater    = 64

	connGraceTime     = 30 * time.Second
	connectCancelTime = 30 * time.Second
	channelSize       = 64
)

var nodeProtocol = ma.ProtocolWithCode(ma.P_P2P).Name

// Configuration - the peering block of the configuration file
type Configuration struct {
	Listen       []string `gluamapper:"listen" json:"listen"`
	PrivateKey   string   `gluamapper:"private_key" json:"private_key"`
	ChainTopic   string   `gluamapper:"chain_topic" json:"chain_topic"`
	BlockTopic   string   `gluamapper:"block_topic" json:"block_topic"`
	MdnsTag      string   `gluamapper:"mdns_tag" json:"mdns_tag"`
	MdnsInterval int      `gluamapper:"mdns_interval" json:"mdns_interval"` // zero disables mDNS
	LowWater     int      `gluamapper:"low_water" json:"low_water"`
	HighWater    int      `gluamapper:"high_water" json:"high_water"`
}

// Message - one payload received on a subscribed topic
type Message struct {
	Topic string
	From  peerlib.ID
	Data  []byte
}

// EventKind - peer change type
type EventKind int

// peer change types
const (
	PeerJoined EventKind = iota
	PeerLeft
)

// String - event name for logging
func (k EventKind) String() string {
	switch k {
	case PeerJoined:
		return "PeerJoined"
	case PeerLeft:
		return "PeerLeft"
	default:
		return "*unknown*"
	}
}

// Event - a peer joined or left
type Event struct {
	Kind EventKind
	Peer peerlib.ID
}

// Node - a host subscribed to the chain and block topics
type Node struct {
	sync.Mutex
	host        p2pcore.Host
	pubsub      *pubsub.PubSub
	subs        []*pubsub.Subscription
	mdns        discovery.Service
	messages    chan Message
	events      chan Event
	connections counter.Counter
	ctx         context.Context
	cancel      context.CancelFunc
	closed      bool
	log         *logger.L
}

// New - create the host, join both topics and start discovery
//
// messages are not read until Run is started
func New(ctx context.Context, configuration Configuration, log *logger.L) (*Node, error) {
	listenAddrs := util.IPPortToMultiAddr(configuration.Listen)
	if 0 == len(listenAddrs) {
		return nil, fault.ErrNoListenAddrs
	}

	prvKey, err := util.PrivKeyOrRandom(configuration.PrivateKey)
	if nil != err {
		log.Errorf("private key error: %s", err)
		return nil, fault.ErrInvalidPeerKey
	}

	ctx, cancel := context.WithCancel(ctx)
	n := &Node{
		messages: make(chan Message, channelSize),
		events:   make(chan Event, channelSize),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}

	err = n.newHost(configuration, listenAddrs, prvKey)
	if nil != err {
		cancel()
		return nil, err
	}
	n.networkMonitor()

	ps, err := pubsub.NewGossipSub(ctx, n.host)
	if nil != err {
		n.Close()
		return nil, err
	}
	n.pubsub = ps

	for _, topic := range []string{configuration.ChainTopic, configuration.BlockTopic} {
		sub, err := ps.Subscribe(topic)
		if nil != err {
			n.Close()
			return nil, err
		}
		log.Infof("subscribed to topic: %q", topic)
		n.subs = append(n.subs, sub)
	}

	if configuration.MdnsInterval > 0 {
		interval := time.Duration(configuration.MdnsInterval) * time.Second
		service, err := discovery.NewMdnsService(ctx, n.host, interval, configuration.MdnsTag)
		if nil != err {
			n.Close()
			return nil, err
		}
		service.RegisterNotifee(n)
		n.mdns = service
		log.Infof("mDNS tag: %q  interval: %s", configuration.MdnsTag, interval)
	}

	return n, nil
}

func (n *Node) newHost(configuration Configuration, listenAddrs []ma.Multiaddr, prvKey crypto.PrivKey) error {
	low := configuration.LowWater
	high := configuration.HighWater
	if low <= 0 {
		low = DefaultLowWater
	}
	if high < low {
		high = low
	}
	cm := connmgr.NewConnManager(low, high, connGraceTime)

	options := []libp2p.Option{
		libp2p.Identity(prvKey),
		libp2p.Security(tls.ID, tls.New),
		libp2p.ListenAddrs(listenAddrs...),
		libp2p.ConnectionManager(cm),
	}
	newHost, err := libp2p.New(n.ctx, options...)
	if nil != err {
		return err
	}
	n.host = newHost
	for _, a := range newHost.Addrs() {
		n.log.Infof("host address: %s/%s/%s", a, nodeProtocol, newHost.ID())
	}
	return nil
}

// ID - the local peer identity
func (n *Node) ID() peerlib.ID {
	return n.host.ID()
}

// AddrInfo - identity and listening addresses of this node
func (n *Node) AddrInfo() peerlib.AddrInfo {
	return peerlib.AddrInfo{
		ID:    n.host.ID(),
		Addrs: n.host.Addrs(),
	}
}

// ConnectionCount - number of open connections
func (n *Node) ConnectionCount() uint64 {
	return n.connections.Uint64()
}

// Messages - payloads from other peers on either topic
func (n *Node) Messages() <-chan Message {
	return n.messages
}

// Events - peers joining and leaving
func (n *Node) Events() <-chan Event {
	return n.events
}

// Publish - gossip data on a topic
func (n *Node) Publish(topic string, data []byte) error {
	return n.pubsub.Publish(topic, data)
}

// Run - read every subscription until shutdown, then close the host
func (n *Node) Run(args interface{}, shutdown <-chan struct{}) {
	log := n.log
	log.Info("starting…")

	var wg sync.WaitGroup
	for _, sub := range n.subs {
		wg.Add(1)
		go func(sub *pubsub.Subscription) {
			defer wg.Done()
			n.subHandler(sub)
		}(sub)
	}

	select {
	case <-shutdown:
	case <-n.ctx.Done():
	}

	log.Info("shutting down…")
	n.Close()
	wg.Wait()
	log.Flush()
}

// subscription handler, own messages are dropped
func (n *Node) subHandler(sub *pubsub.Subscription) {
	log := n.log
	self := n.host.ID()
	topic := sub.Topic()

loop:
	for {
		msg, err := sub.Next(n.ctx)
		if nil != err {
			if nil != n.ctx.Err() {
				return
			}
			log.Warnf("topic: %q  next error: %s", topic, err)
			continue loop
		}

		from, err := peerlib.IDFromBytes(msg.Message.GetFrom())
		if nil != err {
			log.Warnf("topic: %q  invalid sender: %s", topic, err)
			continue loop
		}
		if self == from {
			continue loop
		}

		util.LogDebug(log, util.CoMagenta, fmt.Sprintf("-->> topic: %q  from: %s  bytes: %d", topic, from.ShortString(), len(msg.Data)))

		select {
		case n.messages <- Message{Topic: topic, From: from, Data: msg.Data}:
		case <-n.ctx.Done():
			return
		}
	}
}

// Close - stop discovery and shut the host down, safe to repeat
func (n *Node) Close() {
	n.Lock()
	defer n.Unlock()
	if n.closed {
		return
	}
	n.closed = true

	n.cancel()
	for _, sub := range n.subs {
		sub.Cancel()
	}
	if nil != n.mdns {
		_ = n.mdns.Close()
	}
	if nil != n.host {
		if err := n.host.Close(); nil != err {
			n.log.Errorf("host close error: %s", err)
		}
	}
}
