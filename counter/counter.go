// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package counter - atomic gauge for connection tracking
package counter

import (
	"sync/atomic"
)

// Counter - 64 bit gauge safe for use from notification goroutines
type Counter uint64

// Increment - add one, returns the new value
func (c *Counter) Increment() uint64 {
	return atomic.AddUint64((*uint64)(c), 1)
}

// Decrement - subtract one without going below zero, returns the new
// value
func (c *Counter) Decrement() uint64 {
	for {
		old := atomic.LoadUint64((*uint64)(c))
		if 0 == old {
			return 0
		}
		if atomic.CompareAndSwapUint64((*uint64)(c), old, old-1) {
			return old - 1
		}
	}
}

// Uint64 - current value
func (c *Counter) Uint64() uint64 {
	return atomic.LoadUint64((*uint64)(c))
}
