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

	"github.com/unitynet/unity/params"
)

var (
	big1  = big.NewInt(1)
	big99 = big.NewInt(99)
	big10 = big.NewInt(10)
)

// CalculateDifficultyV1 implements the pre-Unity retarget, spec.md §4.3:
//
//	base = max(d/2048, 1)
//	Δt ≤ 5:        d + base
//	5 < Δt < 15:   d
//	Δt ≥ 15:       d − min(((Δt−15)/10)+1, 99) * base, floored at minimum_pow_difficulty
func CalculateDifficultyV1(parentDifficulty *big.Int, parentTimestamp, grandparentTimestamp uint64) *big.Int {
	base := new(big.Int).Div(parentDifficulty, params.DifficultyBoundDivisor)
	if base.Sign() == 0 {
		base.Set(big1)
	}

	deltaT := int64(parentTimestamp) - int64(grandparentTimestamp)

	var d *big.Int
	switch {
	case deltaT <= 5:
		d = new(big.Int).Add(parentDifficulty, base)
	case deltaT < 15:
		d = new(big.Int).Set(parentDifficulty)
	default:
		factor := new(big.Int).Div(big.NewInt(deltaT-15), big10)
		factor.Add(factor, big1)
		if factor.Cmp(big99) > 0 {
			factor.Set(big99)
		}
		dec := new(big.Int).Mul(factor, base)
		d = new(big.Int).Sub(parentDifficulty, dec)
	}

	if d.Cmp(params.MinimumPowDifficulty) < 0 {
		d.Set(params.MinimumPowDifficulty)
	}
	return d
}
