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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/consensus"
	"github.com/unitynet/unity/consensus/equihash"
	"github.com/unitynet/unity/params"
)

func TestVerifyBlockBasicRejectsOverspentGas(t *testing.T) {
	e := New(&params.ChainConfig{UnityBlock: 1_000_000})
	h := &types.Header{GasLimit: 100, GasUsed: 200, SealType: types.SealPoW, Seal: types.Seal{Nonce: []byte{1}, Solution: []byte{1}}}
	err := e.VerifyBlockBasic(h)
	require.ErrorIs(t, err, consensus.ErrInvalidGasLimit)
}

func TestVerifyBlockBasicRejectsEmptyPoWSeal(t *testing.T) {
	e := New(&params.ChainConfig{UnityBlock: 1_000_000})
	h := &types.Header{GasLimit: 100, GasUsed: 50, SealType: types.SealPoW}
	err := e.VerifyBlockBasic(h)
	require.ErrorIs(t, err, consensus.ErrInvalidSealArity)
}

func TestVerifyBlockFamilyRejectsNonSequentialNumber(t *testing.T) {
	e := New(&params.ChainConfig{UnityBlock: 1_000_000})
	parent := &types.Header{Number: 10, Timestamp: 100, Difficulty: big.NewInt(1000)}
	header := &types.Header{Number: 12, Timestamp: 200, Difficulty: big.NewInt(1000)}
	err := e.VerifyBlockFamily(nil, header, parent, parent, parent)
	require.ErrorIs(t, err, consensus.ErrInvalidDifficulty)
}

func TestVerifyBlockFamilyRejectsNonIncreasingTimestamp(t *testing.T) {
	e := New(&params.ChainConfig{UnityBlock: 1_000_000})
	parent := &types.Header{Number: 10, Timestamp: 100, Difficulty: big.NewInt(1000)}
	header := &types.Header{Number: 11, Timestamp: 100, Difficulty: big.NewInt(1000)}
	err := e.VerifyBlockFamily(nil, header, parent, parent, parent)
	require.ErrorIs(t, err, consensus.ErrInvalidTimestamp)
}

func TestVerifyBlockFamilyAcceptsCorrectPreUnityDifficulty(t *testing.T) {
	e := New(&params.ChainConfig{UnityBlock: 1_000_000})
	parent := &types.Header{Number: 10, Timestamp: 104, Difficulty: big.NewInt(2_048_000)}
	grandparent := &types.Header{Number: 9, Timestamp: 100, Difficulty: big.NewInt(2_000_000)}
	wantDifficulty := equihash.CalculateDifficultyV1(parent.Difficulty, parent.Timestamp, grandparent.Timestamp)
	header := &types.Header{Number: 11, Timestamp: 110, Difficulty: wantDifficulty}
	err := e.VerifyBlockFamily(nil, header, parent, grandparent, grandparent)
	require.NoError(t, err)
}

func TestCalculateDifficultyDispatchesByForkHeight(t *testing.T) {
	e := New(&params.ChainConfig{UnityBlock: 100})
	parent := &types.Header{Number: 98, Timestamp: 104, Difficulty: big.NewInt(2_048_000), SealType: types.SealPoW}
	grandparent := &types.Header{Number: 97, Timestamp: 100, Difficulty: big.NewInt(2_000_000), SealType: types.SealPoW}
	got := e.CalculateDifficulty(parent, grandparent, grandparent, big.NewInt(0))
	want := equihash.CalculateDifficultyV1(parent.Difficulty, parent.Timestamp, grandparent.Timestamp)
	require.Equal(t, 0, got.Cmp(want))
}

func TestOnCloseBlockReturnsCalculatedReward(t *testing.T) {
	e := New(&params.ChainConfig{UnityBlock: 300_000})
	header := &types.Header{Number: 1}
	require.Equal(t, 0, e.OnCloseBlock(header).Cmp(e.CalculateReward(header)))
}
