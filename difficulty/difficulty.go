// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package difficulty - proof-of-work target
//
// A block hash meets the target when its bit string starts with the
// target prefix.  Two renderings of the bit string are supported:
//
//   compact - each byte written in binary without leading zeros and
//             concatenated; this is the rendering used by the
//             reference network and a "00" prefix then requires the
//             first two bytes of the hash to be zero
//   binary  - each byte padded to eight bits, i.e. a plain count of
//             leading zero bits
package difficulty

import (
	"strconv"
	"strings"

	"github.com/bitmark-inc/gossipchain/fault"
)

// Encoding - how hash bytes are rendered before the prefix test
type Encoding int

// all possible encodings
const (
	Compact Encoding = iota
	Binary
)

// defaults
const (
	DefaultPrefix   = "00"
	DefaultEncoding = Compact
)

// Target - a difficulty prefix and its encoding
type Target struct {
	Prefix   string
	Encoding Encoding
}

// Default - the target shared by every node on the reference network
func Default() Target {
	return Target{
		Prefix:   DefaultPrefix,
		Encoding: DefaultEncoding,
	}
}

// Parse - convert configuration strings to a target
func Parse(prefix string, encoding string) (Target, error) {
	if "" == prefix || "" != strings.Trim(prefix, "01") {
		return Target{}, fault.ErrInvalidPrefix
	}

	var e Encoding
	switch strings.ToLower(encoding) {
	case "", "compact":
		e = Compact
	case "binary":
		e = Binary
	default:
		return Target{}, fault.ErrInvalidDifficultyMode
	}
	return Target{Prefix: prefix, Encoding: e}, nil
}

// Meets - true if the hash satisfies the target
func (t Target) Meets(hash []byte) bool {

	// only enough bytes to cover the prefix are rendered, a byte
	// contributes at least one digit in either encoding
	n := len(t.Prefix)
	if n > len(hash) {
		n = len(hash)
	}
	for n < len(hash) && len(BitString(hash[:n], t.Encoding)) < len(t.Prefix) {
		n += 1
	}
	return strings.HasPrefix(BitString(hash[:n], t.Encoding), t.Prefix)
}

// String - target as prefix/encoding
func (t Target) String() string {
	return t.Prefix + "/" + t.Encoding.String()
}

// BitString - render hash bytes as a string of binary digits
func BitString(hash []byte, encoding Encoding) string {
	var b strings.Builder
	for _, c := range hash {
		s := strconv.FormatUint(uint64(c), 2)
		if Binary == encoding {
			for i := len(s); i < 8; i += 1 {
				b.WriteByte('0')
			}
		}
		b.WriteString(s)
	}
	return b.String()
}

// String - encoding name
func (e Encoding) String() string {
	switch e {
	case Compact:
		return "compact"
	case Binary:
		return "binary"
	default:
		return "*unknown*"
	}
}
