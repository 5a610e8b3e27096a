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

import (
	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/rlp"
	"github.com/unitynet/unity/storage/database"
)

// DeriveShaOrig computes transactions_root/receipts_root the same way
// the state trie computes the state root: a fresh, throwaway trie keyed
// by RLP-encoded index, matching klaytn's storage/statedb.DeriveShaOrig
// wired in by blockchain.InitDeriveSha.
type DeriveShaOrig struct{}

func (DeriveShaOrig) DeriveSha(list types.DerivableList) common.Hash {
	if list.Len() == 0 {
		return common.EmptyRootHash
	}
	t, err := New(common.Hash{}, NewOverlayRecentDB(database.NewMemDatabase()))
	if err != nil {
		panic(err) // unreachable: fresh in-memory trie never fails to open
	}
	for i := 0; i < list.Len(); i++ {
		key := rlp.EncodeUint(uint64(i))
		if err := t.TryUpdate(key, list.GetRlp(i)); err != nil {
			panic(err)
		}
	}
	return t.Hash()
}
