// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package miner - proof-of-work search off the event loop
//
// Jobs are block templates; each result carries the job number it
// answers.  The miner never sees the chain, the caller decides what
// to do with a finished block.
package miner

import (
	"context"
	"fmt"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gossipchain/block"
	"github.com/bitmark-inc/gossipchain/difficulty"
	"github.com/bitmark-inc/gossipchain/fault"
)

// Job - a template waiting to be mined
type Job struct {
	ID       string
	Template block.Template
}

// Result - the outcome of one job
type Result struct {
	Job   string
	Block block.Block
	Err   error
}

// Miner - single worker background process
type Miner struct {
	sync.Mutex
	target  difficulty.Target
	jobs    chan Job
	results chan Result
	count   uint16
	log     *logger.L
}

// New - create a miner for the target; it must be started as a
// background process
func New(target difficulty.Target, log *logger.L) *Miner {
	return &Miner{
		target:  target,
		jobs:    make(chan Job, 1),
		results: make(chan Result, 1),
		log:     log,
	}
}

// Submit - queue a template, returning the job number
//
// the caller keeps at most one job outstanding; a second submit before
// its result is read blocks
func (m *Miner) Submit(template block.Template) string {
	m.Lock()
	m.count += 1 // wraps (uint16)
	job := fmt.Sprintf("%04x", m.count)
	m.Unlock()

	m.jobs <- Job{
		ID:       job,
		Template: template,
	}
	return job
}

// Results - finished jobs in completion order
func (m *Miner) Results() <-chan Result {
	return m.results
}

// Run - mine submitted jobs until shutdown, an in-progress search is
// abandoned at shutdown
func (m *Miner) Run(args interface{}, shutdown <-chan struct{}) {
	log := m.log
	log.Info("starting…")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-shutdown
		cancel()
	}()

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case job := <-m.jobs:
			log.Infof("job: %s  mining block: %d", job.ID, job.Template.Index)
			b, err := block.New(ctx, job.Template, m.target, log)
			if fault.ErrMiningCancelled == err {
				break loop
			}
			if nil != err {
				log.Errorf("job: %s  error: %s", job.ID, err)
			}

			select {
			case m.results <- Result{Job: job.ID, Block: b, Err: err}:
			case <-shutdown:
				break loop
			}
		}
	}

	log.Info("shutting down…")
	log.Flush()
}
