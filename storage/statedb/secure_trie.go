// Copyright 2018 The klaytn Authors
// Copyright 2014 The go-ethereum Authors
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

package statedb

import (
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/crypto"
)

// SecureTrie hashes every key with blake2b before touching the
// underlying Trie, so that trie depth can't be biased by adversarial
// key choice (spec.md §4.2 "present the state as a mapping from address
// to Account with cryptographically verifiable root"). When FatDB is
// enabled, it additionally retains the hash->preimage mapping so the
// account-key set can be enumerated in O(1) (spec.md GLOSSARY "Fat DB").
type SecureTrie struct {
	trie  *Trie
	db    *OverlayRecentDB
	fatDB bool
}

func NewSecureTrie(root common.Hash, db *OverlayRecentDB, fatDB bool) (*SecureTrie, error) {
	t, err := New(root, db)
	if err != nil {
		return nil, err
	}
	return &SecureTrie{trie: t, db: db, fatDB: fatDB}, nil
}

func (t *SecureTrie) hashKey(key []byte) common.Hash {
	return crypto.Blake2b256(key)
}

func preimageKey(h common.Hash) []byte {
	return append([]byte("p:"), h.Bytes()...)
}

func (t *SecureTrie) TryGet(key []byte) ([]byte, error) {
	return t.trie.TryGet(t.hashKey(key).Bytes())
}

func (t *SecureTrie) TryUpdate(key, value []byte) error {
	hk := t.hashKey(key)
	if t.fatDB {
		if err := t.db.backing.Put(preimageKey(hk), key); err != nil {
			return err
		}
	}
	return t.trie.TryUpdate(hk.Bytes(), value)
}

func (t *SecureTrie) TryDelete(key []byte) error {
	return t.trie.TryDelete(t.hashKey(key).Bytes())
}

func (t *SecureTrie) Hash() common.Hash { return t.trie.Hash() }

func (t *SecureTrie) Commit(era uint64, onleaf LeafCallback) (common.Hash, error) {
	return t.trie.Commit(era, onleaf)
}

func (t *SecureTrie) Copy() *SecureTrie {
	return &SecureTrie{trie: t.trie.Copy(), db: t.db, fatDB: t.fatDB}
}

func (t *SecureTrie) NodeIterator(start []byte) *NodeIterator {
	return t.trie.NodeIterator(start)
}

// GetKey returns the preimage of a secure key, when Fat DB retained it.
func (t *SecureTrie) GetKey(shaKey []byte) []byte {
	v, err := t.db.backing.Get(preimageKey(common.BytesToHash(shaKey)))
	if err != nil {
		return nil
	}
	return v
}

// Prove writes the merkle proof for key into proofDB: every trie node
// encountered on the path from the root to the leaf. FatDB callers
// needing enumeration use NodeIterator instead; Prove here is the
// single-key membership proof surface klaytn's Trie interface exposes.
func (t *SecureTrie) Prove(key []byte, proofDB interface{ Put(k, v []byte) error }) error {
	hk := t.hashKey(key)
	n := t.trie.root
	nibbles := keybytesToHex(hk.Bytes())
	pos := 0
	for n != nil {
		switch cur := n.(type) {
		case *shortNode:
			if err := writeProofNode(cur, proofDB); err != nil {
				return err
			}
			n = cur.Val
			pos += len(cur.Key)
		case *fullNode:
			if err := writeProofNode(cur, proofDB); err != nil {
				return err
			}
			if pos >= len(nibbles) {
				return nil
			}
			n = cur.Children[nibbles[pos]]
			pos++
		case hashNode:
			rn, err := resolve(cur, t.db)
			if err != nil {
				return err
			}
			n = rn
		case valueNode:
			return nil
		default:
			return nil
		}
	}
	return nil
}

func writeProofNode(n node, proofDB interface{ Put(k, v []byte) error }) error {
	enc := encodeNode(n)
	h := crypto.Blake2b256(enc)
	return proofDB.Put(h.Bytes(), enc)
}
