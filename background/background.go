// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - start and stop long running goroutines
package background

// the shutdown and completed channels for one process
type shutdown struct {
	shutdown chan struct{}
	finished chan struct{}
}

// T - handle for a set of running processes
type T struct {
	s []shutdown
}

// Process - a long running task; Run must return promptly once the
// shutdown channel is closed
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// Start - run each process in its own goroutine
func Start(processes Processes, args interface{}) *T {

	register := &T{
		s: make([]shutdown, len(processes)),
	}

	for i, p := range processes {
		sh := make(chan struct{})
		finished := make(chan struct{})
		register.s[i].shutdown = sh
		register.s[i].finished = finished
		go func(p Process) {
			defer close(finished)
			p.Run(args, sh)
		}(p)
	}
	return register
}

// Stop - signal all processes then wait for every one to return
func (t *T) Stop() {
	if nil == t {
		return
	}

	for _, s := range t.s {
		close(s.shutdown)
	}

	for _, s := range t.s {
		<-s.finished
	}
}
