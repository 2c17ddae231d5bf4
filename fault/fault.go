// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type FatalError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised     = ExistsError("already initialised")
	ErrBothChainsInvalid      = FatalError("local and remote chains are both invalid")
	ErrConfigurationNotTable  = InvalidError("configuration file must return a table")
	ErrEmptyChain             = FatalError("chain has no blocks")
	ErrFileAlreadyExists      = ExistsError("file already exists")
	ErrInvalidBlockHash       = InvalidError("invalid block hash")
	ErrInvalidBlockIndex      = InvalidError("block index does not follow previous block")
	ErrInvalidConfigDirectory = InvalidError("data directory is not a directory")
	ErrInvalidDifficulty      = InvalidError("block hash does not meet difficulty")
	ErrInvalidDifficultyMode  = InvalidError("invalid difficulty encoding")
	ErrInvalidGenesis         = InvalidError("chain does not start with the genesis block")
	ErrInvalidIPAddress       = InvalidError("invalid IP address")
	ErrInvalidLoggerChannel   = InvalidError("invalid logger channel")
	ErrInvalidPeerKey         = InvalidError("invalid peer private key")
	ErrInvalidPortNumber      = InvalidError("invalid port number")
	ErrInvalidPrefix          = InvalidError("difficulty prefix must be a non-empty string of binary digits")
	ErrInvalidPreviousHash    = InvalidError("previous hash does not match previous block")
	ErrMiningCancelled        = ProcessError("mining cancelled")
	ErrNoListenAddrs          = NotFoundError("no listen addresses")
	ErrResponseQueueClosed    = ProcessError("response queue closed")
	ErrStaleBlock             = InvalidError("mined block no longer extends the chain tail")
	ErrUnparseableMessage     = ProcessError("message matches no known schema")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e FatalError) Error() string    { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrFatal(e error) bool    { _, ok := e.(FatalError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
