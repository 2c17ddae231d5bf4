// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	crypto "github.com/libp2p/go-libp2p-core/crypto"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
)

// MakeEd25519PeerKey generate a random ED25519 key in hex string format
func MakeEd25519PeerKey() (string, error) {
	privKey, err := GenerateEd25519PrivKey()
	if err != nil {
		return "", err
	}
	return EncodePrivKeyToHex(privKey)
}

// GenerateEd25519PrivKey generate a random ED25519 private key
func GenerateEd25519PrivKey() (crypto.PrivKey, error) {
	privKey, _, err := crypto.GenerateKeyPairWithReader(crypto.Ed25519, 0, rand.Reader)
	return privKey, err
}

// DecodePrivKeyFromHex decode a hex string to a private key object,
// surrounding whitespace is ignored
func DecodePrivKeyFromHex(privKey string) (crypto.PrivKey, error) {
	keyBytes, err := hex.DecodeString(strings.TrimSpace(privKey))
	if err != nil {
		return nil, err
	}

	key, err := crypto.UnmarshalPrivateKey(keyBytes)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// EncodePrivKeyToHex encode a private key object to a hex string
func EncodePrivKeyToHex(privKey crypto.PrivKey) (string, error) {
	keyBytes, err := crypto.MarshalPrivateKey(privKey)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(keyBytes), nil
}

// PrivKeyOrRandom decode a hex key, or generate a fresh one when the
// string is empty
func PrivKeyOrRandom(privKey string) (crypto.PrivKey, error) {
	if "" == strings.TrimSpace(privKey) {
		return GenerateEd25519PrivKey()
	}
	return DecodePrivKeyFromHex(privKey)
}

// PeerIDFromHex the peer identity belonging to a hex private key
func PeerIDFromHex(privKey string) (peerlib.ID, error) {
	key, err := DecodePrivKeyFromHex(privKey)
	if err != nil {
		return "", err
	}
	return peerlib.IDFromPrivateKey(key)
}
