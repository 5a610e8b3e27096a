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
	"github.com/unitynet/unity/rlp"
)

// node is the in-memory representation of a trie node. The four concrete
// types mirror go-ethereum/klaytn's trie package: fullNode (a 16-way
// branch plus a value slot), shortNode (a compressed leaf or extension),
// valueNode (a terminal value) and hashNode (an unresolved reference to a
// node stored under its hash).
type node interface {
	fstring(string) string
}

type (
	fullNode struct {
		Children [17]node // 16 nibbles + value at index 16
	}
	shortNode struct {
		Key []byte // plain nibbles, one per byte; leaf keys end in terminator 16
		Val node
	}
	valueNode []byte
	hashNode  []byte
)

func (n *fullNode) fstring(ind string) string  { return "fullNode" }
func (n *shortNode) fstring(ind string) string { return "shortNode" }
func (n valueNode) fstring(ind string) string  { return "valueNode" }
func (n hashNode) fstring(ind string) string   { return "hashNode" }

func (n *fullNode) copy() *fullNode {
	cp := *n
	return &cp
}

// --- RLP encoding of nodes ---

func encodeNode(n node) []byte {
	switch n := n.(type) {
	case nil:
		return rlp.EncodeBytes(nil)
	case valueNode:
		return rlp.EncodeBytes(n)
	case hashNode:
		return rlp.EncodeBytes(n)
	case *shortNode:
		return rlp.EncodeList(rlp.EncodeBytes(n.Key), encodeNode(n.Val))
	case *fullNode:
		items := make([][]byte, 17)
		for i, c := range n.Children {
			items[i] = encodeNode(c)
		}
		return rlp.EncodeList(items...)
	}
	panic("statedb: unknown node type")
}

// storeNode returns the stored representation of n: small nodes
// (<32 bytes encoded) are embedded inline, larger nodes are hashed and
// written to db under their hash (matching go-ethereum's "nodes smaller
// than a hash are stored inline" rule, which keeps shallow tries compact).
func storeNode(n node, db *OverlayRecentDB, era uint64) node {
	if n == nil {
		return nil
	}
	if _, ok := n.(hashNode); ok {
		return n
	}
	if _, ok := n.(valueNode); ok {
		return n
	}
	switch n := n.(type) {
	case *shortNode:
		stored := &shortNode{Key: n.Key, Val: storeNode(n.Val, db, era)}
		return hashAndPersist(stored, db)
	case *fullNode:
		stored := n.copy()
		for i, c := range n.Children {
			stored.Children[i] = storeNode(c, db, era)
		}
		return hashAndPersist(stored, db)
	}
	return n
}

func hashAndPersist(n node, db *OverlayRecentDB) node {
	enc := encodeNode(n)
	if len(enc) < 32 {
		return n
	}
	h := crypto.Blake2b256(enc)
	if db != nil {
		db.Insert(h, enc)
	}
	return hashNode(h.Bytes())
}

// resolve loads a hashNode reference from the database into its decoded
// node form; all other node kinds are already resolved.
func resolve(n node, db *OverlayRecentDB) (node, error) {
	hn, ok := n.(hashNode)
	if !ok {
		return n, nil
	}
	enc, err := db.Get(common.BytesToHash(hn))
	if err != nil {
		return nil, err
	}
	return decodeNode(enc)
}

func decodeNode(enc []byte) (node, error) {
	item, err := rlp.DecodeExact(enc)
	if err != nil {
		return nil, err
	}
	return decodeItem(item)
}

// decodeItem decodes a top-level trie node (always a fullNode or
// shortNode at this entry point; a bare value/hash is never the root of
// a standalone encode/decode call in this package).
func decodeItem(item rlp.Item) (node, error) {
	if !item.IsList {
		if len(item.Bytes) == 0 {
			return nil, nil
		}
		return valueNode(item.Bytes), nil
	}
	switch len(item.List) {
	case 2:
		key := item.List[0].Bytes
		if hasTerm(key) {
			return &shortNode{Key: key, Val: valueNode(item.List[1].Bytes)}, nil
		}
		val, err := decodeRef(item.List[1])
		if err != nil {
			return nil, err
		}
		return &shortNode{Key: key, Val: val}, nil
	case 17:
		fn := &fullNode{}
		for i := 0; i < 16; i++ {
			child, err := decodeRef(item.List[i])
			if err != nil {
				return nil, err
			}
			fn.Children[i] = child
		}
		if len(item.List[16].Bytes) > 0 {
			fn.Children[16] = valueNode(item.List[16].Bytes)
		}
		return fn, nil
	default:
		return nil, rlp.ErrExpectedList
	}
}

// decodeRef decodes a child-node reference slot: either an embedded
// sub-node (RLP list), a 32-byte hash reference, or empty (nil child).
func decodeRef(item rlp.Item) (node, error) {
	if item.IsList {
		return decodeItem(item)
	}
	if len(item.Bytes) == 0 {
		return nil, nil
	}
	if len(item.Bytes) == 32 {
		return hashNode(item.Bytes), nil
	}
	return nil, rlp.ErrExpectedString
}
