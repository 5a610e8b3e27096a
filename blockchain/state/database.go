// Copyright 2018 The klaytn Authors
// Copyright 2015 The go-ethereum Authors
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

// Package state implements the Account-level view over the secure state
// trie, spec.md §4.2.
package state

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/storage/statedb"
)

const (
	// maxPastTries bounds how many recent trie roots stay reusable without
	// a fresh Secure Trie open, chosen the same way klaytn's
	// blockchain/state.maxPastTries is: covers a reasonable reorg depth.
	maxPastTries = 12

	codeSizeCacheSize = 100000
)

// SecureTrie is the subset of storage/statedb's SecureTrie the state
// package depends on — declared as a type alias so callers don't need to
// import storage/statedb directly.
type SecureTrie = statedb.SecureTrie

// OverlayDatabase wraps the raw journal-backed KV store with the account
// trie cache and code-size cache go-ethereum/klaytn's cachingDB provides,
// grounded on klaytn's blockchain/state/database.go.
type OverlayDatabase struct {
	db            *statedb.OverlayRecentDB
	mu            sync.Mutex
	pastTries     []*SecureTrie
	codeSizeCache *lru.Cache
	fatDB         bool
}

// NewDatabase wraps db for account-trie access. fatDB enables preimage
// retention for address enumeration (spec.md GLOSSARY "Fat DB").
func NewDatabase(db *statedb.OverlayRecentDB, fatDB bool) *OverlayDatabase {
	csc, _ := lru.New(codeSizeCacheSize)
	return &OverlayDatabase{db: db, codeSizeCache: csc, fatDB: fatDB}
}

func (d *OverlayDatabase) OpenTrie(root common.Hash) (*SecureTrie, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.pastTries) - 1; i >= 0; i-- {
		if d.pastTries[i].Hash() == root {
			return d.pastTries[i].Copy(), nil
		}
	}
	return statedb.NewSecureTrie(root, d.db, d.fatDB)
}

func (d *OverlayDatabase) pushTrie(t *SecureTrie) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pastTries) >= maxPastTries {
		copy(d.pastTries, d.pastTries[1:])
		d.pastTries[len(d.pastTries)-1] = t
	} else {
		d.pastTries = append(d.pastTries, t)
	}
}

func (d *OverlayDatabase) OpenStorageTrie(root common.Hash) (*SecureTrie, error) {
	return statedb.NewSecureTrie(root, d.db, false)
}

func (d *OverlayDatabase) ContractCode(codeHash common.Hash) ([]byte, error) {
	code, err := d.db.Code(codeHash)
	if err == nil {
		d.codeSizeCache.Add(codeHash, len(code))
	}
	return code, err
}

func (d *OverlayDatabase) ContractCodeSize(codeHash common.Hash) (int, error) {
	if cached, ok := d.codeSizeCache.Get(codeHash); ok {
		return cached.(int), nil
	}
	code, err := d.ContractCode(codeHash)
	return len(code), err
}

func (d *OverlayDatabase) TrieDB() *statedb.OverlayRecentDB { return d.db }
