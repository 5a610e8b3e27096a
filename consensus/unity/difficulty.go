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

// Package unity implements the hybrid PoW/PoS engine that takes over at
// the Unity fork: the v2 difficulty retarget, the reward schedule, and
// PoS seal validation, spec.md §4.3.
package unity

import (
	"math/big"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/params"
)

var big1 = big.NewInt(1)

// CalculateDifficultyV2 implements the Unity retarget, spec.md §4.3:
//
//	n = fork (first PoS):   max(minimum_pos_difficulty, total_stake * 10)
//	n = fork + 1:           grandparent.difficulty
//	otherwise, Δt = parent.timestamp - grandparent.timestamp, BARRIER = 7:
//	  Δt ≥ 7: parent.difficulty * 0.952381
//	  Δt < 7: max(parent.difficulty * 1.05, parent.difficulty + 1)
//	floored at minimum_pos_difficulty if parent.seal_type = PoS, else minimum_pow_difficulty.
func CalculateDifficultyV2(n, fork uint64, parent, grandparent *types.Header, totalStake *big.Int) *big.Int {
	var d *big.Int
	switch {
	case n == fork:
		d = new(big.Int).Mul(totalStake, big.NewInt(10))
		if d.Cmp(params.MinimumPosDifficulty) < 0 {
			d = new(big.Int).Set(params.MinimumPosDifficulty)
		}
		return d
	case n == fork+1:
		return new(big.Int).Set(grandparent.Difficulty)
	default:
		deltaT := int64(parent.Timestamp) - int64(grandparent.Timestamp)
		if deltaT >= params.UnityDifficultyBarrierSeconds {
			d = new(big.Int).Mul(parent.Difficulty, params.UnityDecreaseNum)
			d.Div(d, params.UnityDecreaseDen)
		} else {
			inc := new(big.Int).Mul(parent.Difficulty, params.UnityIncreaseNum)
			inc.Div(inc, params.UnityIncreaseDen)
			plusOne := new(big.Int).Add(parent.Difficulty, big1)
			if inc.Cmp(plusOne) > 0 {
				d = inc
			} else {
				d = plusOne
			}
		}
	}

	floor := params.MinimumPowDifficulty
	if parent.SealType == types.SealPoS {
		floor = params.MinimumPosDifficulty
	}
	if d.Cmp(floor) < 0 {
		d.Set(floor)
	}
	return d
}
