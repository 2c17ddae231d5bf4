// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gossipchain/difficulty"
	"github.com/bitmark-inc/gossipchain/util"
)

const (
	dir      = "testing"
	category = "testing"
)

func setupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "trace",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

func teardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	_ = os.RemoveAll(dir)
}

func TestMain(m *testing.M) {
	setupTestLogger()
	rc := m.Run()
	teardownTestLogger()
	os.Exit(rc)
}

func writeConfiguration(t *testing.T, text string) (string, func()) {
	d, err := ioutil.TempDir("", "gossipchaind")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	fileName := filepath.Join(d, "gossipchaind.conf")
	if err := ioutil.WriteFile(fileName, []byte(text), 0600); nil != err {
		t.Fatalf("write error: %s", err)
	}
	return fileName, func() { _ = os.RemoveAll(d) }
}

func TestSampleConfiguration(t *testing.T) {
	sample, err := ioutil.ReadFile("gossipchaind.conf.sample")
	if nil != err {
		t.Fatalf("read sample error: %s", err)
	}
	fileName, cleanup := writeConfiguration(t, string(sample))
	defer cleanup()

	options, err := getConfiguration(fileName)
	assert.Nil(t, err, "wrong error")

	d := filepath.Dir(fileName)
	assert.Equal(t, filepath.Clean(d), options.DataDirectory, "wrong data directory")
	assert.Equal(t, difficulty.Default(), options.target(), "wrong target")
	assert.Equal(t, []string{"0.0.0.0:2136", "[::]:2136"}, options.Peering.Listen, "wrong listen")
	assert.Equal(t, filepath.Join(d, "peer.private"), options.Peering.PrivateKey, "wrong key file")
	assert.Equal(t, filepath.Join(d, "log"), options.Logging.Directory, "wrong log directory")
	assert.True(t, util.IsDirectory(options.Logging.Directory), "log directory not created")
	assert.Equal(t, "info", options.Logging.Levels["miner"], "wrong level")

	n := options.node()
	assert.Equal(t, time.Second, n.InitDelay, "wrong init delay")
	assert.Equal(t, time.Minute, n.DuplicateExpiry, "wrong expiry")
	assert.Equal(t, "chains", n.Topics.Chain, "wrong chain topic")
	assert.Equal(t, "blocks", n.Topics.Block, "wrong block topic")

	assert.Nil(t, options.limiter(), "limiter with zero rate")
}

func TestConfigurationOverrides(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, `
return {
    data_directory = ".",
    difficulty = { prefix = "0000", encoding = "binary" },
    init_delay = 5,
    responses = { rate = 2.5, burst = 3 },
}
`)
	defer cleanup()

	options, err := getConfiguration(fileName)
	assert.Nil(t, err, "wrong error")
	assert.Equal(t, difficulty.Target{Prefix: "0000", Encoding: difficulty.Binary}, options.target(), "wrong target")
	assert.Equal(t, 5*time.Second, options.node().InitDelay, "wrong init delay")

	limiter := options.limiter()
	assert.NotNil(t, limiter, "no limiter")
	assert.Equal(t, 3, limiter.Burst(), "wrong burst")

	// defaults survive
	assert.Equal(t, "gossipchain", options.Peering.MdnsTag, "wrong mDNS tag")
}

func TestConfigurationErrors(t *testing.T) {
	texts := []string{
		`return { data_directory = "" }`,
		`return { data_directory = "/nonexistent/directory" }`,
		`return { data_directory = ".", difficulty = { prefix = "012" } }`,
		`return { data_directory = ".", difficulty = { encoding = "decimal" } }`,
		`return { data_directory = ".", logging = { file = "sub/file.log" } }`,
	}
	for _, text := range texts {
		fileName, cleanup := writeConfiguration(t, text)
		_, err := getConfiguration(fileName)
		assert.NotNil(t, err, "accepted: %s", text)
		cleanup()
	}
}

func TestPeeringKeyFile(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, `return { data_directory = "." }`)
	defer cleanup()

	options, err := getConfiguration(fileName)
	assert.Nil(t, err, "wrong error")

	log := logger.New(category)

	// missing file: random identity
	peering, err := options.peering(log)
	assert.Nil(t, err, "wrong error")
	assert.Equal(t, "", peering.PrivateKey, "key not cleared")

	key, err := util.MakeEd25519PeerKey()
	assert.Nil(t, err, "wrong error")
	err = ioutil.WriteFile(options.Peering.PrivateKey, []byte(key+"\n"), 0600)
	assert.Nil(t, err, "wrong error")

	peering, err = options.peering(log)
	assert.Nil(t, err, "wrong error")
	assert.Equal(t, key+"\n", peering.PrivateKey, "wrong key")

	_, err = util.DecodePrivKeyFromHex(peering.PrivateKey)
	assert.Nil(t, err, "key file not decodable")
}
