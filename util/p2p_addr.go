// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/bitmark-inc/gossipchain/fault"
)

// ParseHostPort - parse host:port  return version(ip4/ip6), ip, port, error
//
// port zero is accepted and lets the system choose a free port
func ParseHostPort(hostPort string) (string, string, string, error) {
	host, port, err := net.SplitHostPort(strings.TrimSpace(hostPort))
	if nil != err {
		return "", "", "", err
	}
	netIP := net.ParseIP(strings.Trim(host, " "))
	if nil == netIP {
		return "", "", "", fault.ErrInvalidIPAddress
	}
	numericPort, err := strconv.Atoi(strings.Trim(port, " "))
	if nil != err {
		return "", "", "", err
	}
	if numericPort < 0 || numericPort > 65535 {
		return "", "", "", fault.ErrInvalidPortNumber
	}
	ver := "ip6"
	if nil != netIP.To4() {
		ver = "ip4"
	}
	return ver, netIP.String(), strconv.Itoa(numericPort), nil
}

// IPPortToMultiAddr generate multiaddrs from listening addresses,
// entries that cannot be parsed are skipped
func IPPortToMultiAddr(addrsStr []string) []ma.Multiaddr {
	var maAddrs []ma.Multiaddr
loop:
	for _, IPPort := range addrsStr {
		ver, ip, port, err := ParseHostPort(IPPort)
		if err != nil {
			continue loop
		}
		addr, err := ma.NewMultiaddr(fmt.Sprintf("/%s/%s/tcp/%s", ver, ip, port))
		if err != nil {
			continue loop
		}
		maAddrs = append(maAddrs, addr)
	}
	return maAddrs
}
