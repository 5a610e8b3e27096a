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

package equihash

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unitynet/unity/params"
)

func TestCalculateDifficultyV1FastBlocksIncrease(t *testing.T) {
	parentDifficulty := big.NewInt(2_048_000)
	// Δt = 4 ≤ 5: increments by base = parentDifficulty/2048.
	got := CalculateDifficultyV1(parentDifficulty, 104, 100)
	base := new(big.Int).Div(parentDifficulty, params.DifficultyBoundDivisor)
	want := new(big.Int).Add(parentDifficulty, base)
	require.Equal(t, 0, got.Cmp(want))
}

func TestCalculateDifficultyV1MidRangeHolds(t *testing.T) {
	parentDifficulty := big.NewInt(2_048_000)
	for _, deltaT := range []uint64{6, 14} {
		got := CalculateDifficultyV1(parentDifficulty, 100+deltaT, 100)
		require.Equalf(t, 0, got.Cmp(parentDifficulty), "Δt=%d", deltaT)
	}
}

func TestCalculateDifficultyV1SlowBlocksDecrease(t *testing.T) {
	parentDifficulty := big.NewInt(2_048_000)
	// Δt = 15: factor = ((15-15)/10)+1 = 1.
	got := CalculateDifficultyV1(parentDifficulty, 115, 100)
	base := new(big.Int).Div(parentDifficulty, params.DifficultyBoundDivisor)
	want := new(big.Int).Sub(parentDifficulty, base)
	require.Equal(t, 0, got.Cmp(want))
}

func TestCalculateDifficultyV1DecreaseFactorCaps(t *testing.T) {
	parentDifficulty := big.NewInt(200_000_000)
	base := new(big.Int).Div(parentDifficulty, params.DifficultyBoundDivisor)
	// Δt = 1005 ⇒ ((1005-15)/10)+1 = 100, capped at 99.
	got := CalculateDifficultyV1(parentDifficulty, 1105, 100)
	want := new(big.Int).Sub(parentDifficulty, new(big.Int).Mul(base, big99))
	require.Equal(t, 0, got.Cmp(want))
}

func TestCalculateDifficultyV1FloorsAtMinimum(t *testing.T) {
	got := CalculateDifficultyV1(big.NewInt(1), 1105, 100)
	require.Equal(t, 0, got.Cmp(params.MinimumPowDifficulty))
}
