// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/gossipchain/configuration"
	"github.com/bitmark-inc/gossipchain/difficulty"
	"github.com/bitmark-inc/gossipchain/fault"
	"github.com/bitmark-inc/gossipchain/node"
	"github.com/bitmark-inc/gossipchain/p2p"
	"github.com/bitmark-inc/gossipchain/protocol"
	"github.com/bitmark-inc/gossipchain/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultLogDirectory = "log"
	defaultLogFile      = "gossipchaind.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultInitDelay       = 1  // seconds
	defaultDuplicateExpiry = 60 // seconds
	defaultResponseRate    = 0  // responses per second, zero is unlimited
	defaultResponseBurst   = 1
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		"main":            "info",
		logger.DefaultTag: "info",
	}
)

// DifficultyType - the proof-of-work target
type DifficultyType struct {
	Prefix   string `gluamapper:"prefix" json:"prefix"`
	Encoding string `gluamapper:"encoding" json:"encoding"`
}

// ResponsesType - pacing of chain responses
type ResponsesType struct {
	Rate  float64 `gluamapper:"rate" json:"rate"`
	Burst int     `gluamapper:"burst" json:"burst"`
}

// Configuration - everything read from the configuration file
//
// Peering.PrivateKey names a file holding the hex key, it is replaced
// by the file contents when the node starts
type Configuration struct {
	DataDirectory   string               `gluamapper:"data_directory" json:"data_directory"`
	Difficulty      DifficultyType       `gluamapper:"difficulty" json:"difficulty"`
	InitDelay       int                  `gluamapper:"init_delay" json:"init_delay"`
	DuplicateExpiry int                  `gluamapper:"duplicate_expiry" json:"duplicate_expiry"`
	Peering         p2p.Configuration    `gluamapper:"peering" json:"peering"`
	Responses       ResponsesType        `gluamapper:"responses" json:"responses"`
	Logging         logger.Configuration `gluamapper:"logging" json:"logging"`
}

func defaultConfiguration(dataDirectory string) *Configuration {
	target := difficulty.Default()
	return &Configuration{
		DataDirectory: dataDirectory,
		Difficulty: DifficultyType{
			Prefix:   target.Prefix,
			Encoding: target.Encoding.String(),
		},
		InitDelay:       defaultInitDelay,
		DuplicateExpiry: defaultDuplicateExpiry,

		Peering: p2p.Configuration{
			Listen:       []string{"0.0.0.0:0", "[::]:0"},
			PrivateKey:   peerPrivateKeyFilename,
			ChainTopic:   protocol.DefaultChainTopic,
			BlockTopic:   protocol.DefaultBlockTopic,
			MdnsTag:      p2p.DefaultMdnsTag,
			MdnsInterval: p2p.DefaultMdnsInterval,
			LowWater:     p2p.DefaultLowWater,
			HighWater:    p2p.DefaultHighWater,
		},

		Responses: ResponsesType{
			Rate:  defaultResponseRate,
			Burst: defaultResponseBurst,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}
}

// will read decode and verify the configuration, an empty file name
// gives the defaults rooted at the current directory
func getConfiguration(configurationFileName string) (*Configuration, error) {

	var options *Configuration

	if "" == configurationFileName {
		dataDirectory, err := os.Getwd()
		if nil != err {
			return nil, err
		}
		options = defaultConfiguration(dataDirectory)

	} else {
		configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
		if nil != err {
			return nil, err
		}

		// absolute path to the main directory
		dataDirectory, _ := filepath.Split(configurationFileName)

		options = defaultConfiguration(defaultDataDirectory)
		if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
			return nil, err
		}

		// ensure absolute data directory
		if "" == options.DataDirectory || "~" == options.DataDirectory {
			return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
		} else if "." == options.DataDirectory {
			options.DataDirectory = dataDirectory // same directory as the configuration file
		}
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if !util.IsDirectory(options.DataDirectory) {
		return nil, fault.ErrInvalidConfigDirectory
	}

	if _, err := difficulty.Parse(options.Difficulty.Prefix, options.Difficulty.Encoding); nil != err {
		return nil, err
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.Peering.PrivateKey,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names
	if "." != filepath.Dir(options.Logging.File) {
		return nil, fmt.Errorf("Files: %q is not plain name", options.Logging.File)
	}

	// make absolute and create directories if they do not already exist
	options.Logging.Directory = util.EnsureAbsolute(options.DataDirectory, options.Logging.Directory)
	if err := os.MkdirAll(options.Logging.Directory, 0700); nil != err {
		return nil, err
	}

	// done
	return options, nil
}

// target - the validated difficulty
func (c *Configuration) target() difficulty.Target {
	target, _ := difficulty.Parse(c.Difficulty.Prefix, c.Difficulty.Encoding)
	return target
}

// peering - transport settings with the private key file read, a
// missing file gives a random identity
func (c *Configuration) peering(log *logger.L) (p2p.Configuration, error) {
	peering := c.Peering
	if "" == peering.PrivateKey {
		log.Warn("no private key file, using a random identity")
		return peering, nil
	}

	if !util.EnsureFileExists(peering.PrivateKey) {
		log.Warnf("private key file: %q not found, using a random identity", peering.PrivateKey)
		peering.PrivateKey = ""
		return peering, nil
	}

	data, err := ioutil.ReadFile(peering.PrivateKey)
	if nil != err {
		return peering, err
	}
	peering.PrivateKey = string(data)
	return peering, nil
}

// node - event loop settings
func (c *Configuration) node() node.Configuration {
	return node.Configuration{
		InitDelay: time.Duration(c.InitDelay) * time.Second,
		Topics: protocol.Topics{
			Chain: c.Peering.ChainTopic,
			Block: c.Peering.BlockTopic,
		},
		DuplicateExpiry: time.Duration(c.DuplicateExpiry) * time.Second,
	}
}

// limiter - response pacing, nil when unlimited
func (c *Configuration) limiter() *rate.Limiter {
	if c.Responses.Rate <= 0 {
		return nil
	}
	burst := c.Responses.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.Responses.Rate), burst)
}
