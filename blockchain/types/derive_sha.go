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

package types

import "github.com/unitynet/unity/crypto"
import "github.com/unitynet/unity/common"

// DerivableList is anything ordered_root can be computed over: ordered
// items addressable by index and individually RLP-encodable, spec.md §3
// "transactions_root = ordered_root(rlp(tx_i))".
type DerivableList interface {
	Len() int
	GetRlp(i int) []byte
}

// DeriveShaFunc is the pluggable root-computation strategy. The trie-
// backed implementation lives in storage/statedb (DeriveShaOrig) and is
// installed by calling blockchain.InitDeriveSha, the same indirection
// klaytn uses in blockchain/init_derive_sha.go to avoid a
// types<->statedb import cycle. Until that call is made, DeriveShaSimple
// is in effect.
type DeriveShaFunc interface {
	DeriveSha(list DerivableList) common.Hash
}

var deriveSha DeriveShaFunc = DeriveShaSimple{}

func InitDeriveSha(impl DeriveShaFunc) {
	deriveSha = impl
}

func DeriveSha(list DerivableList) common.Hash {
	return deriveSha.DeriveSha(list)
}

// DeriveShaSimple computes a root without a trie: blake2b of the
// concatenated per-item blake2b digests of the item encodings. It is the
// default until InitDeriveSha installs another implementation, and the
// fallback used
// by standalone unit tests of this package that don't want a storage
// dependency.
type DeriveShaSimple struct{}

func (DeriveShaSimple) DeriveSha(list DerivableList) common.Hash {
	if list.Len() == 0 {
		return common.EmptyRootHash
	}
	var acc []byte
	for i := 0; i < list.Len(); i++ {
		acc = append(acc, crypto.Blake2b256(list.GetRlp(i)).Bytes()...)
	}
	return crypto.Blake2b256(acc)
}
