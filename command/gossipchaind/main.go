// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gossipchain/background"
	"github.com/bitmark-inc/gossipchain/chain"
	"github.com/bitmark-inc/gossipchain/fault"
	"github.com/bitmark-inc/gossipchain/miner"
	"github.com/bitmark-inc/gossipchain/node"
	"github.com/bitmark-inc/gossipchain/p2p"
	"github.com/bitmark-inc/gossipchain/protocol"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if len(options["config-file"]) > 1 {
		exitwithstatus.Message("%s: only one config-file option is allowed, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := ""
	if 1 == len(options["config-file"]) {
		configurationFile = options["config-file"][0]
	}
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	quiet := len(options["quiet"]) > 0
	if len(options["verbose"]) > 0 {
		theConfiguration.Logging.Console = true
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: fault setup failed with error: %s", program, err)
	}
	defer fault.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := theConfiguration.target()
	log.Infof("difficulty: %s", target)

	peering, err := theConfiguration.peering(log)
	if nil != err {
		log.Criticalf("peering configuration error: %s", err)
		exitwithstatus.Message("peering configuration error: %s", err)
	}

	transport, err := p2p.New(ctx, peering, logger.New("p2p"))
	if nil != err {
		log.Criticalf("p2p initialise error: %s", err)
		exitwithstatus.Message("p2p initialise error: %s", err)
	}
	log.Infof("peer id: %s", transport.ID())
	if !quiet {
		fmt.Printf("peer id: %s\n", transport.ID())
	}

	m := miner.New(target, logger.New("miner"))
	responses := protocol.NewResponseQueue(theConfiguration.limiter())

	processes := background.Start(background.Processes{
		transport,
		m,
		responses,
	}, nil)
	defer processes.Stop()

	// shutdown on a signal
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-ch:
			log.Infof("received signal: %v", sig)
			if !quiet {
				fmt.Printf("\nreceived signal: %v\n", sig)
				fmt.Printf("\nshutting down…\n")
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	c := chain.New(target, logger.New("chain"))
	n := node.New(theConfiguration.node(), c, transport, m, responses, os.Stdout, logger.New("node"))

	err = n.Run(ctx, node.ReadLines(ctx, os.Stdin))
	if nil != err {
		log.Criticalf("node stopped with error: %s", err)
		exitwithstatus.Message("%s: node error: %s", program, err)
	}

	log.Info("shutting down…")
}
