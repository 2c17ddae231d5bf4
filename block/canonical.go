// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"strconv"
	"unicode/utf8"
)

// CanonicalJSON - the bytes that are hashed for a block
//
// keys are in sorted order and the output is compact:
//   {"data":…,"id":…,"nonce":…,"previous_hash":…,"timestamp":…}
func CanonicalJSON(index uint64, nonce uint64, timestamp int64, data string, previousHash string) []byte {
	prefix, suffix := canonicalParts(index, timestamp, data, previousHash)
	buffer := make([]byte, 0, len(prefix)+20+len(suffix))
	buffer = append(buffer, prefix...)
	buffer = strconv.AppendUint(buffer, nonce, 10)
	return append(buffer, suffix...)
}

// split the canonical form around the nonce so that mining only
// has to format the nonce for each attempt
func canonicalParts(index uint64, timestamp int64, data string, previousHash string) ([]byte, []byte) {
	prefix := []byte(`{"data":`)
	prefix = appendQuoted(prefix, data)
	prefix = append(prefix, `,"id":`...)
	prefix = strconv.AppendUint(prefix, index, 10)
	prefix = append(prefix, `,"nonce":`...)

	suffix := []byte(`,"previous_hash":`)
	suffix = appendQuoted(suffix, previousHash)
	suffix = append(suffix, `,"timestamp":`...)
	suffix = strconv.AppendInt(suffix, timestamp, 10)
	suffix = append(suffix, '}')

	return prefix, suffix
}

const hexDigits = "0123456789abcdef"

// JSON string quoting that leaves HTML characters and the unicode
// line separators alone, only quote, backslash and control
// characters are escaped
func appendQuoted(buffer []byte, s string) []byte {
	buffer = append(buffer, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if utf8.RuneError == r && 1 == size {
				buffer = append(buffer, "\ufffd"...)
			} else {
				buffer = append(buffer, s[i:i+size]...)
			}
			i += size
			continue
		}
		switch c {
		case '"':
			buffer = append(buffer, '\\', '"')
		case '\\':
			buffer = append(buffer, '\\', '\\')
		case '\b':
			buffer = append(buffer, '\\', 'b')
		case '\f':
			buffer = append(buffer, '\\', 'f')
		case '\n':
			buffer = append(buffer, '\\', 'n')
		case '\r':
			buffer = append(buffer, '\\', 'r')
		case '\t':
			buffer = append(buffer, '\\', 't')
		default:
			if c < 0x20 {
				buffer = append(buffer, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0x0f])
			} else {
				buffer = append(buffer, c)
			}
		}
		i += 1
	}
	return append(buffer, '"')
}
