// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"sort"

	peerlib "github.com/libp2p/go-libp2p-core/peer"
)

// Registry - peers currently known from discovery
//
// only the event loop touches it so there is no locking; it is never
// consulted for fork choice
type Registry struct {
	peers map[peerlib.ID]struct{}
}

// NewRegistry - empty registry
func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[peerlib.ID]struct{}),
	}
}

// Add - record a joined peer, true if it was not already known
func (r *Registry) Add(id peerlib.ID) bool {
	if _, ok := r.peers[id]; ok {
		return false
	}
	r.peers[id] = struct{}{}
	return true
}

// Remove - forget a peer that left, true if it was known
func (r *Registry) Remove(id peerlib.ID) bool {
	if _, ok := r.peers[id]; !ok {
		return false
	}
	delete(r.peers, id)
	return true
}

// Count - number of known peers
func (r *Registry) Count() int {
	return len(r.peers)
}

// Any - true if at least one peer is known
func (r *Registry) Any() bool {
	return 0 != len(r.peers)
}

// Pick - an arbitrary known peer
func (r *Registry) Pick() (peerlib.ID, bool) {
	for id := range r.peers {
		return id, true
	}
	return "", false
}

// List - known peers in a stable order for display
func (r *Registry) List() []peerlib.ID {
	ids := make([]peerlib.ID, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}
