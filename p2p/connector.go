// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"context"
	"fmt"

	"github.com/libp2p/go-libp2p-core/network"
	peerlib "github.com/libp2p/go-libp2p-core/peer"

	"github.com/bitmark-inc/gossipchain/util"
)

// Connect - dial a peer unless it is this node or already connected
func (n *Node) Connect(info peerlib.AddrInfo) error {
	if n.host.ID() == info.ID {
		return nil
	}
	if network.Connected == n.host.Network().Connectedness(info.ID) {
		return nil
	}

	cctx, cancel := context.WithTimeout(n.ctx, connectCancelTime)
	defer cancel()

	err := n.host.Connect(cctx, info)
	if nil != err {
		util.LogWarn(n.log, util.CoRed, fmt.Sprintf("connect to: %s  error: %s", info.ID.ShortString(), err))
		return err
	}
	util.LogInfo(n.log, util.CoGreen, fmt.Sprintf("connected to: %s", info.ID.ShortString()))
	return nil
}

// HandlePeerFound - mDNS notifee, a discovered peer is dialled
func (n *Node) HandlePeerFound(info peerlib.AddrInfo) {
	if n.host.ID() == info.ID {
		return
	}
	n.log.Debugf("mDNS found: %s  addrs: %v", info.ID.ShortString(), info.Addrs)
	go func() {
		_ = n.Connect(info)
	}()
}
