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

// Package consensus owns the protocol constants and pure validity
// functions for both the legacy PoW engine and the hybrid Unity
// PoW/PoS engine, independent of any particular chain history beyond
// the handful of recent ancestors each check needs (spec.md §4.3).
package consensus

import (
	"errors"
	"math/big"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
)

// Failure taxonomy, spec.md §4.3 "Failure taxonomy".
var (
	ErrInvalidSealArity       = errors.New("consensus: invalid seal arity")
	ErrInvalidTimestamp       = errors.New("consensus: invalid timestamp")
	ErrInvalidDifficulty      = errors.New("consensus: invalid difficulty")
	ErrInvalidTransactionsRoot = errors.New("consensus: invalid transactions root")
	ErrInvalidPoSBlockNumber  = errors.New("consensus: invalid pos block number")
	ErrUnknownParent          = errors.New("consensus: unknown parent")
	ErrInvalidGasLimit        = errors.New("consensus: invalid gas limit")
	ErrInvalidSeal            = errors.New("consensus: invalid seal")
)

// Protocol mirrors klaytn's consensus.Protocol: the wire-level identity
// exchanged during peer capability negotiation (spec.md §4.6 Status
// message carries genesis_hash, which this identifies the chain for).
type Protocol struct {
	Name     string
	Versions []uint
	Lengths  []uint64
}

var UnityProtocol = Protocol{
	Name:     "unity",
	Versions: []uint{1},
	Lengths:  []uint64{17},
}

// ChainReader is the minimal ancestor-lookup surface the engine needs to
// validate a header against its family, implemented by blockchain.BlockChain.
type ChainReader interface {
	GetHeader(hash common.Hash, number uint64) *types.Header
	GetHeaderByNumber(number uint64) *types.Header
}

// Engine is the dispatch surface spec.md §9's redesign note asks for: a
// single interface over both sealing algorithms rather than deep
// inheritance between a PoW engine type and a PoS engine type. The
// concrete dispatch (which formula/verification path runs) is decided
// per-header by SealType and by whether the block number is past
// params.ChainConfig.UnityBlock, not by engine subtyping.
type Engine interface {
	// VerifyBlockBasic performs the cheap checks: gas bound, and for PoW
	// headers that the seal carries a non-empty nonce (spec.md §4.3). It
	// does not test the nonce and solution against the header difficulty.
	VerifyBlockBasic(header *types.Header) error

	// VerifyBlockUnordered performs the costly check: Equihash solution
	// validation for PoW headers (spec.md §4.3). PoS headers have no
	// unordered check and return nil.
	VerifyBlockUnordered(header *types.Header) error

	// VerifyBlockFamily checks header against its immediate ancestors:
	// number/timestamp monotonicity, seal-type alternation post-Unity,
	// and the recomputed difficulty (spec.md §4.3).
	VerifyBlockFamily(chain ChainReader, header, parent, grandparent, greatgrandparent *types.Header) error

	// CalculateDifficulty dispatches to the v1 or v2 formula by block
	// number (spec.md §4.3 calculate_difficulty).
	CalculateDifficulty(parent, grandparent, greatgrandparent *types.Header, totalStake *big.Int) *big.Int

	// CalculateReward dispatches ramp-up / flat / compounding by block
	// number (spec.md §4.3 calculate_reward).
	CalculateReward(header *types.Header) *big.Int

	// OnCloseBlock returns the CalculateReward amount owed to the block's
	// author; crediting it to state is left to the caller (spec.md §4.3
	// on_close_block).
	OnCloseBlock(header *types.Header) *big.Int
}
