// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package crypto wraps the hash and signature primitives used across the
// node: blake2b-256 for trie keys and header hashing, and ed25519 for PoS
// seal signatures and account-provider signing.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/unitynet/unity/common"
	"golang.org/x/crypto/blake2b"
)

func init() {
	common.EmptyCodeHash = Blake2b256(nil)
	common.EmptyRootHash = Blake2b256([]byte{0x80}) // rlp of empty byte string
}

// Blake2b256 returns the 32-byte blake2b digest of the concatenation of data.
func Blake2b256(data ...[]byte) common.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // unreachable: nil key is always valid for blake2b-256
	}
	for _, b := range data {
		h.Write(b)
	}
	var out common.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// HashAddress returns the secure trie key for an account address, per
// spec.md §4.2: "insert the account RLP into the main trie under
// blake2b(addr)".
func HashAddress(addr common.Address) common.Hash {
	return Blake2b256(addr.Bytes())
}

// GenerateKey creates a fresh ed25519 keypair for PoS validator signing or
// account-provider secrets.
func GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// Sign produces an ed25519 signature of digest under priv.
func Sign(priv ed25519.PrivateKey, digest []byte) []byte {
	return ed25519.Sign(priv, digest)
}

// VerifySignature checks an ed25519 signature of digest under pub.
func VerifySignature(pub ed25519.PublicKey, digest, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, digest, sig)
}

// VRF derives the next PoS seed from a validator's public key and the
// previous seed, per spec.md §4.3 "seed = VRF(pk, previous_seed)". This
// project does not implement a full verifiable-random-function with a
// separable proof; it derives a deterministic, hard-to-predict-without-the-key
// seed by hashing the key material, matching the "seed chain" shape the
// spec describes without inventing a public proof format the original
// source does not specify either.
func VRF(pub ed25519.PublicKey, previousSeed common.Hash) common.Hash {
	return Blake2b256(pub, previousSeed.Bytes())
}

// RandomToken returns a fresh 16-character token for the Account Provider's
// sign_with_token side-channel (spec.md §4.7).
func RandomToken() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	out := make([]byte, 16)
	for i, v := range b {
		out[i] = alphabet[int(v)%len(alphabet)]
	}
	return string(out)
}
