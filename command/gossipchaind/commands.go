// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/exitwithstatus"

	"github.com/bitmark-inc/gossipchain/fault"
	"github.com/bitmark-inc/gossipchain/util"
)

const (
	peerPrivateKeyFilename = "peer.private"
)

// setup command handler
//
// commands that run to create key files these commands cannot access
// the chain or the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-peer-identity", "peer":
		privateKeyFilename := getFilenameWithDirectory(arguments, peerPrivateKeyFilename)

		if util.EnsureFileExists(privateKeyFilename) {
			fmt.Printf("generate private key: %q error: %s\n", privateKeyFilename, fault.ErrFileAlreadyExists)
			exitwithstatus.Exit(1)
		}

		key, err := util.MakeEd25519PeerKey()
		if err != nil {
			fmt.Printf("generate private key: %q error: %s\n", privateKeyFilename, err.Error())
			exitwithstatus.Exit(1)
		}

		if err := ioutil.WriteFile(privateKeyFilename, []byte(key+"\n"), 0600); err != nil {
			_ = os.Remove(privateKeyFilename)
			fmt.Printf("generate private key: %q error: %s\n", privateKeyFilename, err.Error())
			exitwithstatus.Exit(1)
		}

		id, err := util.PeerIDFromHex(key)
		if nil != err {
			fmt.Printf("peer id from: %q error: %s\n", privateKeyFilename, err)
			exitwithstatus.Exit(1)
		}

		fmt.Printf("generated private key: %q\n", privateKeyFilename)
		fmt.Printf("peer id: %s\n", id)

	case "start", "run":
		return false // continue processing

	case "config-test", "cfg":
		return false // defer processing until configuration is read

	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] [--config-file=FILE] [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  gen-peer-identity [DIR]    (peer)   - create private key in: %q\n", "DIR/"+peerPrivateKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convienience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("console commands while running:\n\n")
		fmt.Printf("  ls p                                - list discovered peers\n")
		fmt.Printf("  ls c                                - print the local chain\n")
		fmt.Printf("  create b DATA                       - mine and broadcast a block carrying DATA\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.MarshalIndent(options, "", "  ")
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		os.Stdout.Write(b)
		os.Stdout.WriteString("\n")

	default: // unknown commands fall through to run
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

func getFilenameWithDirectory(arguments []string, name string) string {
	dir := "."
	if len(arguments) >= 1 {
		dir = arguments[0]
	}

	return filepath.Join(dir, name)
}
