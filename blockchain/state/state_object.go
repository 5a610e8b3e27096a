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
	"fmt"
	"math/big"

	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/crypto"
)

// stateObject is the in-memory, copy-on-write view of one Account: its
// decoded fields, a lazily-populated storage cache, and a dirty flag set,
// spec.md §4.2 "lazy-load from trie; cache in memory".
type stateObject struct {
	address common.Address
	data    *Account

	db *StateDB

	storageTrie  *SecureTrie // opened lazily on first storage_at/set_storage
	storageCache map[common.Hash]common.Hash
	storageDirty map[common.Hash]common.Hash

	code []byte

	dirty   bool
	deleted bool

	// emptyButCommit keeps a zero-value account from being swept by the
	// empty-account rule, spec.md §4.2 "used when a contract created with
	// empty code must still appear with nonce=1".
	emptyButCommit bool
}

func newObject(db *StateDB, addr common.Address, data *Account) *stateObject {
	return &stateObject{
		address:      addr,
		data:         data,
		db:           db,
		storageCache: make(map[common.Hash]common.Hash),
		storageDirty: make(map[common.Hash]common.Hash),
	}
}

func (o *stateObject) empty() bool { return o.data.Empty() && !o.emptyButCommit }

func (o *stateObject) markDirty() { o.dirty = true }

func (o *stateObject) Balance() *big.Int { return o.data.Balance }

func (o *stateObject) SetBalance(v *big.Int) {
	o.data.Balance = v
	o.markDirty()
}

// AddBalance credits v. spec.md §4.2 lists add_balance as one of the
// mutating operations; there is no precondition on the credited side.
func (o *stateObject) AddBalance(v *big.Int) {
	if v.Sign() == 0 {
		return
	}
	o.SetBalance(new(big.Int).Add(o.data.Balance, v))
}

// ErrInsufficientBalance is the fatal internal error spec.md §4.2 assigns
// to a sub_balance call that would drive the balance negative: "violation
// is a fatal internal error."
var ErrInsufficientBalance = fmt.Errorf("state: sub_balance precondition violated (balance < amount)")

// SubBalance debits v, panicking if the precondition balance ≥ v does not
// hold — callers are expected to have already checked affordability
// during gas/value validation, so reaching this path is a programming
// error, not a reachable user-facing condition.
func (o *stateObject) SubBalance(v *big.Int) {
	if v.Sign() == 0 {
		return
	}
	if o.data.Balance.Cmp(v) < 0 {
		panic(ErrInsufficientBalance)
	}
	o.SetBalance(new(big.Int).Sub(o.data.Balance, v))
}

func (o *stateObject) Nonce() uint64 { return o.data.Nonce }

func (o *stateObject) SetNonce(n uint64) {
	o.data.Nonce = n
	o.markDirty()
}

func (o *stateObject) CodeHash() common.Hash { return o.data.CodeHash }

func (o *stateObject) Code(db *OverlayDatabase) []byte {
	if o.code != nil {
		return o.code
	}
	if o.data.CodeHash == common.EmptyCodeHash {
		return nil
	}
	code, err := db.ContractCode(o.data.CodeHash)
	if err != nil {
		return nil
	}
	o.code = code
	return code
}

// SetCode installs fresh bytecode, spec.md §4.2 "init_code".
func (o *stateObject) SetCode(codeHash common.Hash, code []byte) {
	o.code = code
	o.data.CodeHash = codeHash
	o.data.CodeSize = uint64(len(code))
	o.markDirty()
}

func (o *stateObject) openStorageTrie(db *OverlayDatabase) (*SecureTrie, error) {
	if o.storageTrie != nil {
		return o.storageTrie, nil
	}
	t, err := db.OpenStorageTrie(o.data.StorageRoot)
	if err != nil {
		return nil, err
	}
	o.storageTrie = t
	return t, nil
}

// GetState returns the value at key, checking the dirty cache, then the
// read cache, then falling through to the storage sub-trie.
func (o *stateObject) GetState(db *OverlayDatabase, key common.Hash) (common.Hash, error) {
	if v, ok := o.storageDirty[key]; ok {
		return v, nil
	}
	if v, ok := o.storageCache[key]; ok {
		return v, nil
	}
	t, err := o.openStorageTrie(db)
	if err != nil {
		return common.Hash{}, err
	}
	enc, err := t.TryGet(key.Bytes())
	if err != nil {
		return common.Hash{}, err
	}
	v := common.BytesToHash(enc)
	o.storageCache[key] = v
	return v, nil
}

// SetState marks key dirty, spec.md §4.2 "set_storage".
func (o *stateObject) SetState(key, value common.Hash) {
	o.storageDirty[key] = value
	o.markDirty()
}

// commitStorage flushes the dirty storage keys into the sub-trie,
// deleting zero-value entries and inserting nonzero ones, then returns
// the new storage root. spec.md §4.2 commit: "commit its storage
// sub-trie (deleting zero-value keys, inserting nonzero)".
func (o *stateObject) commitStorage(db *OverlayDatabase, era uint64) error {
	if len(o.storageDirty) == 0 {
		return nil
	}
	t, err := o.openStorageTrie(db)
	if err != nil {
		return err
	}
	for key, value := range o.storageDirty {
		delete(o.storageDirty, key)
		o.storageCache[key] = value
		if value.IsZero() {
			if err := t.TryDelete(key.Bytes()); err != nil {
				return err
			}
			continue
		}
		if err := t.TryUpdate(key.Bytes(), value.Bytes()); err != nil {
			return err
		}
	}
	root, err := t.Commit(era, nil)
	if err != nil {
		return err
	}
	o.data.StorageRoot = root
	return nil
}

// commitCode flushes freshly set bytecode, spec.md §4.2 "commit its code
// if dirty (writing code bytes keyed by code_hash)".
func (o *stateObject) commitCode(db *OverlayDatabase) error {
	if o.code == nil || o.data.CodeHash == common.EmptyCodeHash {
		return nil
	}
	return db.db.PutCode(o.data.CodeHash, o.code)
}

func codeHashOf(code []byte) common.Hash {
	if len(code) == 0 {
		return common.EmptyCodeHash
	}
	return crypto.Blake2b256(code)
}

func (o *stateObject) deepCopy(db *StateDB) *stateObject {
	cp := newObject(db, o.address, o.data.deepCopy())
	cp.code = o.code
	cp.storageTrie = o.storageTrie
	for k, v := range o.storageCache {
		cp.storageCache[k] = v
	}
	for k, v := range o.storageDirty {
		cp.storageDirty[k] = v
	}
	cp.emptyButCommit = o.emptyButCommit
	return cp
}
