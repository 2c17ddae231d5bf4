// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	p2pnet "github.com/libp2p/go-libp2p-core/network"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// connection notifications become peer events: the first connection
// to a peer joins it and losing the last one makes it leave
func (n *Node) networkMonitor() {
	log := n.log
	n.host.Network().Notify(&p2pnet.NotifyBundle{
		ListenF: func(net p2pnet.Network, addr ma.Multiaddr) {
			log.Debugf("listening at: %s", addr)
		},
		ConnectedF: func(net p2pnet.Network, conn p2pnet.Conn) {
			count := n.connections.Increment()
			log.Debugf("connected: %s  connections: %d", conn.RemoteMultiaddr(), count)
			n.emit(Event{Kind: PeerJoined, Peer: conn.RemotePeer()})
		},
		DisconnectedF: func(net p2pnet.Network, conn p2pnet.Conn) {
			count := n.connections.Decrement()
			log.Debugf("disconnected: %s  connections: %d", conn.RemoteMultiaddr(), count)
			id := conn.RemotePeer()
			if p2pnet.Connected != net.Connectedness(id) {
				n.emit(Event{Kind: PeerLeft, Peer: id})
			}
		},
	})
}

// notification callbacks run on network goroutines and must not stall
// after shutdown
func (n *Node) emit(e Event) {
	select {
	case n.events <- e:
	case <-n.ctx.Done():
	}
}

// Peers - currently connected peers
func (n *Node) Peers() []peerlib.ID {
	return n.host.Network().Peers()
}
