// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/gossipchain/fault"
)

// Responder - accepts chain responses for later publication
type Responder interface {
	Send(ChainResponse) error
}

// ResponseQueue - unbounded FIFO between message classification and
// the event loop
//
// Send never waits for the reader; items are released on Chan no
// faster than the limiter allows
type ResponseQueue struct {
	in      chan ChainResponse
	out     chan ChainResponse
	done    chan struct{}
	limiter *rate.Limiter
}

// NewResponseQueue - create a queue, a nil limiter does not pace
// the output; the queue must be started as a background process
func NewResponseQueue(limiter *rate.Limiter) *ResponseQueue {
	if nil == limiter {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &ResponseQueue{
		in:      make(chan ChainResponse),
		out:     make(chan ChainResponse),
		done:    make(chan struct{}),
		limiter: limiter,
	}
}

// Send - append a response to the queue
func (q *ResponseQueue) Send(r ChainResponse) error {
	select {
	case q.in <- r:
		return nil
	case <-q.done:
		return fault.ErrResponseQueueClosed
	}
}

// Chan - channel delivering queued responses in order
func (q *ResponseQueue) Chan() <-chan ChainResponse {
	return q.out
}

// Run - move items from Send to Chan until shutdown
func (q *ResponseQueue) Run(args interface{}, shutdown <-chan struct{}) {
	defer close(q.done)

	pending := make([]ChainResponse, 0, 4)
	open := false
	var gate <-chan time.Time

	for {
		if len(pending) > 0 && !open && nil == gate {
			if delay := q.limiter.Reserve().Delay(); delay <= 0 {
				open = true
			} else {
				gate = time.After(delay)
			}
		}

		var out chan<- ChainResponse
		var head ChainResponse
		if open {
			out = q.out
			head = pending[0]
		}

		select {
		case <-shutdown:
			return
		case r := <-q.in:
			pending = append(pending, r)
		case <-gate:
			gate = nil
			open = true
		case out <- head:
			pending[0] = ChainResponse{}
			pending = pending[1:]
			open = false
		}
	}
}
