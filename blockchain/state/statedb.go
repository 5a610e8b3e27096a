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

package state

import (
	"math/big"

	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/log"
)

var logger = log.NewModuleLogger(log.StateTrie)

// StateDB is the address -> Account view over one secure trie root,
// spec.md §4.2. One instance is the exclusive owner of an ExecutedBlock's
// state, copy-on-write isolated from sibling blocks via Copy.
type StateDB struct {
	db      *OverlayDatabase
	trie    *SecureTrie
	objects map[common.Address]*stateObject

	// touched accumulates every address that GetOrNewStateObject created
	// or looked up this block, so Commit's empty-account sweep (spec.md
	// §4.2 "Empty-account rule") only has to scan addresses actually
	// touched rather than the whole trie.
	touched map[common.Address]struct{}
}

func New(root common.Hash, db *OverlayDatabase) (*StateDB, error) {
	tr, err := db.OpenTrie(root)
	if err != nil {
		return nil, err
	}
	return &StateDB{
		db:      db,
		trie:    tr,
		objects: make(map[common.Address]*stateObject),
		touched: make(map[common.Address]struct{}),
	}, nil
}

func (s *StateDB) getStateObject(addr common.Address) *stateObject {
	if obj, ok := s.objects[addr]; ok {
		return obj
	}
	enc, err := s.trie.TryGet(addr.Bytes())
	if err != nil || len(enc) == 0 {
		return nil
	}
	acc, err := decodeAccount(enc)
	if err != nil {
		logger.Error("corrupt account encoding", "address", addr, "err", err)
		return nil
	}
	obj := newObject(s, addr, acc)
	s.objects[addr] = obj
	return obj
}

// GetOrNewStateObject returns the account at addr, creating an empty one
// on first touch, spec.md §4.2 "created on first touch".
func (s *StateDB) GetOrNewStateObject(addr common.Address) *stateObject {
	s.touched[addr] = struct{}{}
	if obj := s.getStateObject(addr); obj != nil {
		return obj
	}
	obj := newObject(s, addr, newEmptyAccount())
	obj.markDirty()
	s.objects[addr] = obj
	return obj
}

func (s *StateDB) Exist(addr common.Address) bool {
	return s.getStateObject(addr) != nil
}

func (s *StateDB) Empty(addr common.Address) bool {
	obj := s.getStateObject(addr)
	return obj == nil || obj.empty()
}

func (s *StateDB) Balance(addr common.Address) *big.Int {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.Balance()
	}
	return new(big.Int)
}

func (s *StateDB) Nonce(addr common.Address) uint64 {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.Nonce()
	}
	return 0
}

func (s *StateDB) CodeHash(addr common.Address) common.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.CodeHash()
	}
	return common.EmptyCodeHash
}

func (s *StateDB) Code(addr common.Address) []byte {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.Code(s.db)
	}
	return nil
}

// StorageAt reads a single storage slot, spec.md §4.2 "storage_at(addr,
// key) — lazy-load from trie; cache in memory".
func (s *StateDB) StorageAt(addr common.Address, key common.Hash) common.Hash {
	obj := s.getStateObject(addr)
	if obj == nil {
		return common.Hash{}
	}
	v, err := obj.GetState(s.db, key)
	if err != nil {
		logger.Error("storage read failed", "address", addr, "key", key, "err", err)
		return common.Hash{}
	}
	return v
}

func (s *StateDB) AddBalance(addr common.Address, amount *big.Int) {
	s.GetOrNewStateObject(addr).AddBalance(amount)
}

// SubBalance enforces the spec.md §4.2 numeric invariant: "sub_balance(x)
// precondition balance ≥ x; violation is a fatal internal error."
func (s *StateDB) SubBalance(addr common.Address, amount *big.Int) {
	obj := s.GetOrNewStateObject(addr)
	if obj.Balance().Cmp(amount) < 0 {
		logger.Crit("sub_balance precondition violated", "address", addr, "balance", obj.Balance(), "amount", amount)
	}
	obj.SubBalance(amount)
}

func (s *StateDB) SetBalance(addr common.Address, amount *big.Int) {
	s.GetOrNewStateObject(addr).SetBalance(amount)
}

func (s *StateDB) IncNonce(addr common.Address) {
	obj := s.GetOrNewStateObject(addr)
	obj.SetNonce(obj.Nonce() + 1)
}

func (s *StateDB) SetStorage(addr common.Address, key, value common.Hash) {
	s.GetOrNewStateObject(addr).SetState(key, value)
}

// InitCode installs code for addr and, per spec.md §4.2's note on
// contract creation with empty code, keeps the account from being swept
// by the empty-account rule even when balance/nonce/code all read zero.
func (s *StateDB) InitCode(addr common.Address, code []byte) {
	obj := s.GetOrNewStateObject(addr)
	obj.SetCode(codeHashOf(code), code)
	obj.emptyButCommit = true
}

// KillAccount destructs addr, sweeping its balance to refund and zeroing
// its account record, spec.md §4.2 "destructed on suicide (balance sweep
// to refund address)".
func (s *StateDB) KillAccount(addr, refund common.Address) {
	obj := s.GetOrNewStateObject(addr)
	if obj.Balance().Sign() != 0 {
		s.AddBalance(refund, obj.Balance())
	}
	obj.deleted = true
	obj.data = newEmptyAccount()
	obj.storageDirty = make(map[common.Hash]common.Hash)
	obj.storageCache = make(map[common.Hash]common.Hash)
	obj.markDirty()
}

// Copy returns an independent StateDB sharing the underlying database but
// with its own dirty-object set, the copy-on-write isolation spec.md
// §4.2 requires per ExecutedBlock.
func (s *StateDB) Copy() *StateDB {
	cp := &StateDB{
		db:      s.db,
		trie:    s.trie.Copy(),
		objects: make(map[common.Address]*stateObject, len(s.objects)),
		touched: make(map[common.Address]struct{}, len(s.touched)),
	}
	for addr, obj := range s.objects {
		cp.objects[addr] = obj.deepCopy(cp)
	}
	for addr := range s.touched {
		cp.touched[addr] = struct{}{}
	}
	return cp
}

// Commit flushes every dirty account: storage sub-trie, code, then the
// account RLP itself under blake2b(addr) in the main trie. Empty-and-
// touched accounts are removed instead, spec.md §4.2 "Empty-account
// rule".
func (s *StateDB) Commit(era uint64) (common.Hash, error) {
	for addr := range s.touched {
		obj, ok := s.objects[addr]
		if !ok {
			continue
		}
		if obj.deleted || obj.empty() {
			if err := s.trie.TryDelete(addr.Bytes()); err != nil {
				return common.Hash{}, err
			}
			delete(s.objects, addr)
			continue
		}
		if !obj.dirty {
			continue
		}
		if err := obj.commitCode(s.db); err != nil {
			return common.Hash{}, err
		}
		if err := obj.commitStorage(s.db, era); err != nil {
			return common.Hash{}, err
		}
		if err := s.trie.TryUpdate(addr.Bytes(), obj.data.encode()); err != nil {
			return common.Hash{}, err
		}
		obj.dirty = false
	}
	s.touched = make(map[common.Address]struct{})
	root, err := s.trie.Commit(era, nil)
	if err != nil {
		return common.Hash{}, err
	}
	s.db.pushTrie(s.trie)
	return root, nil
}

// Drop returns the current root and underlying database, spec.md §4.2
// "drop() → (root, db) — return current root and underlying DB for
// sealing."
func (s *StateDB) Drop() (common.Hash, *OverlayDatabase) {
	return s.trie.Hash(), s.db
}

// IntermediateRoot computes the trie root without persisting — used by
// the block lifecycle to fill header.StateRoot before the block is
// actually sealed and its era known.
func (s *StateDB) IntermediateRoot() common.Hash {
	return s.trie.Hash()
}
