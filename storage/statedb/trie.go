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

// Trie is a secure* Merkle-Patricia trie over an OverlayRecentDB. It
// implements copy-on-write isolation per ExecutedBlock: Copy() returns an
// independent handle sharing the same backing database.
type Trie struct {
	db   *OverlayRecentDB
	root node
}

// New opens the trie rooted at root, or an empty trie when root is the
// zero hash.
func New(root common.Hash, db *OverlayRecentDB) (*Trie, error) {
	t := &Trie{db: db}
	if root.IsZero() || root == common.EmptyRootHash {
		return t, nil
	}
	n, err := resolve(hashNode(root.Bytes()), db)
	if err != nil {
		return nil, err
	}
	t.root = n
	return t, nil
}

func (t *Trie) TryGet(key []byte) ([]byte, error) {
	v, newroot, didResolve, err := t.tryGet(t.root, keybytesToHex(key), 0)
	if err == nil && didResolve {
		t.root = newroot
	}
	return v, err
}

func (t *Trie) tryGet(n node, key []byte, pos int) (value []byte, newnode node, didResolve bool, err error) {
	switch n := n.(type) {
	case nil:
		return nil, nil, false, nil
	case valueNode:
		return n, n, false, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !bytesEqual(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, n, false, nil
		}
		value, newval, didResolve, err := t.tryGet(n.Val, key, pos+len(n.Key))
		if err == nil && didResolve {
			n = &shortNode{Key: n.Key, Val: newval}
			return value, n, true, nil
		}
		return value, n, didResolve, err
	case *fullNode:
		child := n.Children[key[pos]]
		value, newchild, didResolve, err := t.tryGet(child, key, pos+1)
		if err == nil && didResolve {
			n = n.copy()
			n.Children[key[pos]] = newchild
			return value, n, true, nil
		}
		return value, n, didResolve, err
	case hashNode:
		child, err := resolve(n, t.db)
		if err != nil {
			return nil, n, true, err
		}
		value, newnode, _, err := t.tryGet(child, key, pos)
		return value, newnode, true, err
	default:
		panic("statedb: invalid node")
	}
}

func (t *Trie) TryUpdate(key, value []byte) error {
	k := keybytesToHex(key)
	if len(value) == 0 {
		_, n, err := t.delete(t.root, k)
		if err != nil {
			return err
		}
		t.root = n
		return nil
	}
	_, n, err := t.insert(t.root, k, valueNode(value))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) TryDelete(key []byte) error {
	_, n, err := t.delete(t.root, keybytesToHex(key))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) insert(n node, key []byte, value node) (bool, node, error) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok {
			return !bytesEqual(v, value.(valueNode)), value, nil
		}
		return true, value, nil
	}
	switch n := n.(type) {
	case nil:
		return true, &shortNode{Key: append([]byte(nil), key...), Val: value}, nil
	case *shortNode:
		match := prefixLen(key, n.Key)
		if match == len(n.Key) {
			dirty, nn, err := t.insert(n.Val, key[match:], value)
			if !dirty || err != nil {
				return false, n, err
			}
			return true, &shortNode{Key: n.Key, Val: nn}, nil
		}
		branch := &fullNode{}
		var err error
		_, branch.Children[n.Key[match]], err = t.insert(nil, n.Key[match+1:], n.Val)
		if err != nil {
			return false, nil, err
		}
		_, branch.Children[key[match]], err = t.insert(nil, key[match+1:], value)
		if err != nil {
			return false, nil, err
		}
		if match == 0 {
			return true, branch, nil
		}
		return true, &shortNode{Key: append([]byte(nil), key[:match]...), Val: branch}, nil
	case *fullNode:
		dirty, nn, err := t.insert(n.Children[key[0]], key[1:], value)
		if !dirty || err != nil {
			return false, n, err
		}
		cp := n.copy()
		cp.Children[key[0]] = nn
		return true, cp, nil
	case hashNode:
		rn, err := resolve(n, t.db)
		if err != nil {
			return false, n, err
		}
		return t.insert(rn, key, value)
	default:
		panic("statedb: invalid node")
	}
}

func (t *Trie) delete(n node, key []byte) (bool, node, error) {
	switch n := n.(type) {
	case nil:
		return false, nil, nil
	case *shortNode:
		match := prefixLen(key, n.Key)
		if match < len(n.Key) {
			return false, n, nil
		}
		if match == len(key) {
			return true, nil, nil
		}
		dirty, child, err := t.delete(n.Val, key[match:])
		if !dirty || err != nil {
			return false, n, err
		}
		switch child := child.(type) {
		case nil:
			return true, nil, nil
		case *shortNode:
			return true, &shortNode{Key: concatKeys(n.Key, child.Key), Val: child.Val}, nil
		default:
			return true, &shortNode{Key: n.Key, Val: child}, nil
		}
	case *fullNode:
		dirty, nn, err := t.delete(n.Children[key[0]], key[1:])
		if !dirty || err != nil {
			return false, n, err
		}
		cp := n.copy()
		cp.Children[key[0]] = nn

		pos := -1
		for i, c := range cp.Children {
			if c != nil {
				if pos == -1 {
					pos = i
				} else {
					pos = -2
					break
				}
			}
		}
		if pos >= 0 {
			if pos != 16 {
				child, err := resolveIfHash(cp.Children[pos], t.db)
				if err != nil {
					return false, nil, err
				}
				if cn, ok := child.(*shortNode); ok {
					combined := append([]byte{byte(pos)}, cn.Key...)
					return true, &shortNode{Key: combined, Val: cn.Val}, nil
				}
				return true, &shortNode{Key: []byte{byte(pos)}, Val: cp.Children[pos]}, nil
			}
			return true, &shortNode{Key: []byte{16}, Val: cp.Children[16]}, nil
		}
		return true, cp, nil
	case hashNode:
		rn, err := resolve(n, t.db)
		if err != nil {
			return false, n, err
		}
		return t.delete(rn, key)
	default:
		return false, nil, nil
	}
}

func resolveIfHash(n node, db *OverlayRecentDB) (node, error) {
	if hn, ok := n.(hashNode); ok {
		return resolve(hn, db)
	}
	return n, nil
}

func concatKeys(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Hash returns the root hash of the trie without persisting anything:
// the same hash Commit would return for the current contents.
func (t *Trie) Hash() common.Hash {
	if t.root == nil {
		return common.EmptyRootHash
	}
	stored := storeNode(t.root, nil, 0)
	if hn, ok := stored.(hashNode); ok {
		return common.BytesToHash(hn)
	}
	return hashOf(encodeNode(stored))
}

func hashOf(enc []byte) common.Hash {
	return crypto.Blake2b256(enc)
}

// LeafCallback is invoked for every leaf (account) committed, letting the
// caller index storage roots/code hashes as they're written; mirrors
// go-ethereum/klaytn's trie.LeafCallback used by state.Database.
type LeafCallback func(leaf []byte, parent common.Hash) error

// Commit persists every dirty node under a fresh era id (the trie's
// caller picks era = block number) and returns the new root hash.
func (t *Trie) Commit(era uint64, onleaf LeafCallback) (common.Hash, error) {
	if t.root == nil {
		return common.EmptyRootHash, nil
	}
	t.root = storeNode(t.root, t.db, era)
	if hn, ok := t.root.(hashNode); ok {
		return common.BytesToHash(hn), nil
	}
	// root small enough to stay inline: hash and store explicitly so Get
	// through the database layer still resolves it.
	enc := encodeNode(t.root)
	h := hashOf(enc)
	t.db.Insert(h, enc)
	return h, nil
}

// Copy returns an independent handle over the same backing database,
// used for per-block copy-on-write isolation (spec.md §4.2).
func (t *Trie) Copy() *Trie {
	return &Trie{db: t.db, root: t.root}
}

// NodeIterator is a minimal ordered walk over stored leaves, used by Fat
// DB account enumeration (spec.md GLOSSARY).
type NodeIterator struct {
	leaves [][2][]byte // [key, value] pairs gathered eagerly (acceptable for node scale)
	pos    int
}

func (it *NodeIterator) Next() bool {
	it.pos++
	return it.pos < len(it.leaves)
}

func (it *NodeIterator) Key() []byte   { return it.leaves[it.pos][0] }
func (it *NodeIterator) Value() []byte { return it.leaves[it.pos][1] }

func (t *Trie) NodeIterator(start []byte) *NodeIterator {
	it := &NodeIterator{pos: -1}
	t.collect(t.root, nil, &it.leaves)
	return it
}

func (t *Trie) collect(n node, prefix []byte, out *[][2][]byte) {
	switch n := n.(type) {
	case nil:
		return
	case *shortNode:
		t.collect(n.Val, append(prefix, n.Key...), out)
	case *fullNode:
		for i, c := range n.Children {
			if i == 16 {
				if v, ok := c.(valueNode); ok {
					key := hexToKeybytes(append(append([]byte(nil), prefix...), 16))
					*out = append(*out, [2][]byte{key, v})
				}
				continue
			}
			t.collect(c, append(append([]byte(nil), prefix...), byte(i)), out)
		}
	case hashNode:
		rn, err := resolve(n, t.db)
		if err != nil {
			return
		}
		t.collect(rn, prefix, out)
	case valueNode:
		key := hexToKeybytes(append(append([]byte(nil), prefix...), 16))
		*out = append(*out, [2][]byte{key, n})
	}
}
