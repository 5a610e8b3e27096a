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
	"github.com/unitynet/unity/rlp"
)

// Account is the value stored under blake2b(addr) in the secure state
// trie, spec.md §4.2 "Account".
type Account struct {
	Balance     *big.Int
	Nonce       uint64
	StorageRoot common.Hash
	CodeHash    common.Hash
	CodeSize    uint64
}

func newEmptyAccount() *Account {
	return &Account{
		Balance:     new(big.Int),
		StorageRoot: common.EmptyRootHash,
		CodeHash:    common.EmptyCodeHash,
	}
}

// Empty reports the condition spec.md §4.2 defines as deletable after a
// dirty commit: "balance=0 ∧ nonce=0 ∧ code_hash=EMPTY_HASH ∧
// storage_root=EMPTY_TRIE_HASH".
func (a *Account) Empty() bool {
	return a.Balance.Sign() == 0 && a.Nonce == 0 &&
		a.CodeHash == common.EmptyCodeHash && a.StorageRoot == common.EmptyRootHash
}

func (a *Account) encode() []byte {
	return rlp.EncodeList(
		rlp.EncodeBigInt(a.Balance),
		rlp.EncodeUint(a.Nonce),
		rlp.EncodeBytes(a.StorageRoot.Bytes()),
		rlp.EncodeBytes(a.CodeHash.Bytes()),
		rlp.EncodeUint(a.CodeSize),
	)
}

func decodeAccount(enc []byte) (*Account, error) {
	item, err := rlp.DecodeExact(enc)
	if err != nil {
		return nil, err
	}
	if !item.IsList || len(item.List) != 5 {
		return nil, rlp.ErrExpectedList
	}
	f := item.List
	bal, err := f[0].BigInt()
	if err != nil {
		return nil, err
	}
	nonce, err := f[1].Uint64()
	if err != nil {
		return nil, err
	}
	size, err := f[4].Uint64()
	if err != nil {
		return nil, err
	}
	return &Account{
		Balance:     bal,
		Nonce:       nonce,
		StorageRoot: common.BytesToHash(f[2].Bytes),
		CodeHash:    common.BytesToHash(f[3].Bytes),
		CodeSize:    size,
	}, nil
}

func (a *Account) deepCopy() *Account {
	cp := *a
	cp.Balance = new(big.Int).Set(a.Balance)
	return &cp
}
