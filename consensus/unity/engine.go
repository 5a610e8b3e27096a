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

package unity

import (
	"math/big"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/consensus"
	"github.com/unitynet/unity/consensus/equihash"
	"github.com/unitynet/unity/params"
)

// Engine is the single consensus.Engine implementation spanning both
// sealing algorithms, spec.md §9's redesign note: dispatch by header
// shape rather than engine-type inheritance.
type Engine struct {
	config *params.ChainConfig

	// Registry backs PoS stake lookups. New leaves it nil and no Engine
	// method reads it; VerifyPoSSeal takes its registry as an argument.
	Registry StakeRegistry
	MinStake *big.Int
}

func New(config *params.ChainConfig) *Engine {
	return &Engine{config: config, MinStake: big.NewInt(0)}
}

func (e *Engine) VerifyBlockBasic(header *types.Header) error {
	if header.GasUsed > header.GasLimit {
		return consensus.ErrInvalidGasLimit
	}
	if header.SealType == types.SealPoW {
		if header.Seal.IsEmpty() {
			return consensus.ErrInvalidSealArity
		}
	}
	return nil
}

func (e *Engine) VerifyBlockUnordered(header *types.Header) error {
	if header.SealType != types.SealPoW {
		return nil
	}
	indices := make([]uint32, equihash.SolutionSize)
	if len(header.Seal.Solution) < len(indices)*4 {
		return consensus.ErrInvalidSeal
	}
	for i := range indices {
		indices[i] = uint32(header.Seal.Solution[i*4])<<24 |
			uint32(header.Seal.Solution[i*4+1])<<16 |
			uint32(header.Seal.Solution[i*4+2])<<8 |
			uint32(header.Seal.Solution[i*4+3])
	}
	if err := equihash.VerifySolution(header.HashNoSeal().Bytes(), header.Seal.Nonce, indices); err != nil {
		return consensus.ErrInvalidSeal
	}
	return nil
}

func (e *Engine) VerifyBlockFamily(chain consensus.ChainReader, header, parent, grandparent, greatgrandparent *types.Header) error {
	if header.Number != parent.Number+1 {
		return consensus.ErrInvalidDifficulty
	}
	if header.Timestamp <= parent.Timestamp {
		return consensus.ErrInvalidTimestamp
	}
	if e.config.IsUnity(header.Number) && e.config.IsUnity(parent.Number) {
		if header.SealType == parent.SealType {
			return consensus.ErrInvalidSealArity
		}
	}
	want := e.CalculateDifficulty(parent, grandparent, greatgrandparent, big.NewInt(0))
	if header.Difficulty.Cmp(want) != 0 {
		return consensus.ErrInvalidDifficulty
	}
	return nil
}

// CalculateDifficulty dispatches v1/v2 by block number, spec.md §4.3.
func (e *Engine) CalculateDifficulty(parent, grandparent, greatgrandparent *types.Header, totalStake *big.Int) *big.Int {
	n := parent.Number + 1
	if !e.config.IsUnity(n) {
		return equihash.CalculateDifficultyV1(parent.Difficulty, parent.Timestamp, grandparent.Timestamp)
	}
	return CalculateDifficultyV2(n, e.config.UnityBlock, parent, grandparent, totalStake)
}

func (e *Engine) CalculateReward(header *types.Header) *big.Int {
	return CalculateReward(header.Number, e.config.UnityBlock, e.config.MonetaryPolicyBlock)
}

// OnCloseBlock returns the reward owed to header.Author, spec.md §4.3
// on_close_block. Mutating the caller's state is the block
// lifecycle's responsibility (work.ExecutedBlock.Close); this returns
// the amount to credit and leaves application to the caller, keeping the
// engine free of a StateDB dependency.
func (e *Engine) OnCloseBlock(header *types.Header) *big.Int {
	return e.CalculateReward(header)
}

var _ consensus.Engine = (*Engine)(nil)
