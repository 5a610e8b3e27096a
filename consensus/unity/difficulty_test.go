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
	"github.com/unitynet/unity/params"
)

func header(number, timestamp uint64, difficulty *big.Int, sealType types.SealType) *types.Header {
	return &types.Header{
		Number:     number,
		Timestamp:  timestamp,
		Difficulty: difficulty,
		SealType:   sealType,
	}
}

func TestCalculateDifficultyV2ForkEntryUsesStakeFloor(t *testing.T) {
	parent := header(99, 100, big.NewInt(1000), types.SealPoW)
	grandparent := header(98, 90, big.NewInt(900), types.SealPoW)
	got := CalculateDifficultyV2(100, 100, parent, grandparent, big.NewInt(1))
	require.Equal(t, 0, got.Cmp(params.MinimumPosDifficulty))
}

func TestCalculateDifficultyV2ForkEntryUsesStakeTimesTen(t *testing.T) {
	parent := header(99, 100, big.NewInt(1000), types.SealPoW)
	grandparent := header(98, 90, big.NewInt(900), types.SealPoW)
	stake := new(big.Int).Mul(params.MinimumPosDifficulty, big.NewInt(10))
	got := CalculateDifficultyV2(100, 100, parent, grandparent, stake)
	want := new(big.Int).Mul(stake, big.NewInt(10))
	require.Equal(t, 0, got.Cmp(want))
}

func TestCalculateDifficultyV2ForkPlusOneUsesGrandparent(t *testing.T) {
	parent := header(100, 100, big.NewInt(5000), types.SealPoS)
	grandparent := header(99, 90, big.NewInt(4242), types.SealPoW)
	got := CalculateDifficultyV2(101, 100, parent, grandparent, big.NewInt(0))
	require.Equal(t, 0, got.Cmp(grandparent.Difficulty))
}

func TestCalculateDifficultyV2DecreasesPastBarrier(t *testing.T) {
	parent := header(101, 100, big.NewInt(1_000_000), types.SealPoS)
	grandparent := header(100, 90, big.NewInt(900_000), types.SealPoS) // Δt = 10 ≥ 7
	got := CalculateDifficultyV2(102, 100, parent, grandparent, big.NewInt(0))
	require.Equal(t, -1, got.Cmp(parent.Difficulty))
}

func TestCalculateDifficultyV2IncreasesUnderBarrier(t *testing.T) {
	parent := header(101, 100, big.NewInt(1_000_000), types.SealPoS)
	grandparent := header(100, 95, big.NewInt(900_000), types.SealPoS) // Δt = 5 < 7
	got := CalculateDifficultyV2(102, 100, parent, grandparent, big.NewInt(0))
	require.Equal(t, 1, got.Cmp(parent.Difficulty))
}

func TestCalculateDifficultyV2FloorsAtMinimum(t *testing.T) {
	parent := header(101, 100, big.NewInt(1), types.SealPoS)
	grandparent := header(100, 80, big.NewInt(1), types.SealPoS) // Δt = 20 ≥ 7, large decrease
	got := CalculateDifficultyV2(102, 100, parent, grandparent, big.NewInt(0))
	require.Equal(t, 0, got.Cmp(params.MinimumPosDifficulty))
}
