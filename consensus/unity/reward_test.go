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

	"github.com/unitynet/unity/params"
)

// TestCalculateRewardRampUpBoundaries checks the four reward boundary
// values spec.md §8 states explicitly, with unity/monetary-policy forks
// far in the future so every case falls in the ramp-up branch.
func TestCalculateRewardRampUpBoundaries(t *testing.T) {
	const farFork = 1_000_000_000
	cases := []struct {
		n    uint64
		want string
	}{
		{1, "748997531261476163"},
		{10000, "777891039832365092"},
		{259200, "1497989283243258292"},
		{300000, "1497989283243310185"},
	}
	for _, c := range cases {
		want, ok := new(big.Int).SetString(c.want, 10)
		require.True(t, ok)
		got := CalculateReward(c.n, farFork, 0)
		require.Equalf(t, want, got, "n=%d", c.n)
	}
}

func TestCalculateRewardRampUpLowerBoundClamp(t *testing.T) {
	const farFork = 1_000_000_000
	got := CalculateReward(0, farFork, 0)
	require.Equal(t, 0, got.Cmp(params.LowerBlockReward))
}

func TestCalculateRewardFlatAfterUnity(t *testing.T) {
	got := CalculateReward(500_000, 300_000, 0)
	require.Equal(t, "4500000000000000000", got.String())
}

func TestCalculateRewardUnityForkBlockItselfUsesPriorSchedule(t *testing.T) {
	// header.number() > n is strict in the reference engine: the fork
	// block itself still uses the ramp-up/flat schedule below it.
	got := CalculateReward(300_000, 300_000, 0)
	require.NotEqual(t, "4500000000000000000", got.String())
}

func TestCalculateRewardMonetaryPolicyTermProgresses(t *testing.T) {
	const unityFork = 100
	const mpFork = 1000
	blocksPerYear := params.BlocksPerYear.Uint64()
	first := CalculateReward(mpFork+1, unityFork, mpFork)
	sameYear := CalculateReward(mpFork+blocksPerYear, unityFork, mpFork)
	nextYear := CalculateReward(mpFork+blocksPerYear+1, unityFork, mpFork)
	require.Equal(t, 0, first.Cmp(sameYear))
	require.NotEqual(t, first.String(), nextYear.String())
}
