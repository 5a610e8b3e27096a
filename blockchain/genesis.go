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

package blockchain

import (
	"math/big"

	"github.com/unitynet/unity/blockchain/state"
	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/params"
)

// Genesis specifies the block-0 header fields and pre-funded balances.
// Loading this from a config file is out of scope (spec.md §1); a
// deployment constructs it directly.
type Genesis struct {
	ExtraData []byte
	GasLimit  uint64
	Timestamp uint64
	Author    common.Address
	Alloc     map[common.Address]*big.Int
}

// ToBlock materializes the genesis header and commits the allocation into
// db, returning the header with StateRoot/TransactionsRoot/ReceiptsRoot
// already filled in.
func (g *Genesis) ToBlock(db *state.OverlayDatabase) (*types.Header, error) {
	stateDB, err := state.New(common.Hash{}, db)
	if err != nil {
		return nil, err
	}
	for addr, balance := range g.Alloc {
		stateDB.SetBalance(addr, balance)
	}
	if params.Premine.Sign() > 0 && len(g.Alloc) == 0 {
		stateDB.SetBalance(g.Author, params.Premine)
	}

	root, err := stateDB.Commit(0)
	if err != nil {
		return nil, err
	}
	header := &types.Header{
		ParentHash:       common.Hash{},
		Number:           0,
		Author:           g.Author,
		Timestamp:        g.Timestamp,
		Difficulty:       new(big.Int).Set(params.MinimumPowDifficulty),
		GasLimit:         g.GasLimit,
		StateRoot:        root,
		TransactionsRoot: common.EmptyRootHash,
		ReceiptsRoot:     common.EmptyRootHash,
		ExtraData:        g.ExtraData,
		SealType:         types.SealPoW,
	}

	if err := db.TrieDB().JournalUnder(0, header.Hash()); err != nil {
		return nil, err
	}
	if err := db.TrieDB().MarkCanonical(0, header.Hash()); err != nil {
		return nil, err
	}
	return header, nil
}
