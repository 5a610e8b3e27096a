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

package statedb

import "github.com/unitynet/unity/common"

func codeKey(h common.Hash) []byte {
	return append([]byte("c:"), h.Bytes()...)
}

// PutCode writes contract bytecode keyed by its hash, bypassing the node
// trie (code is addressed directly, never walked), spec.md §4.2 "commit
// its code if dirty".
func (db *OverlayRecentDB) PutCode(hash common.Hash, code []byte) error {
	return db.backing.Put(codeKey(hash), code)
}

// Node returns the raw, already-resolved bytes for hash: either a trie
// node or contract code, whichever namespace the caller is addressing.
func (db *OverlayRecentDB) Node(hash common.Hash) ([]byte, error) {
	return db.Get(hash)
}

// Code returns contract bytecode by hash.
func (db *OverlayRecentDB) Code(hash common.Hash) ([]byte, error) {
	return db.backing.Get(codeKey(hash))
}
