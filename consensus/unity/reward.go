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
	"sync"

	"github.com/unitynet/unity/params"
)

var (
	rampUpSlopeOnce sync.Once
	rampUpSlope     *big.Int

	compoundingTableCache   = map[uint64][]*big.Int{}
	compoundingTableCacheMu sync.Mutex
)

// slope returns the once-computed integer ramp-up rate m = (end-start)/delta,
// grounded in the reference RewardsCalculator::new, which computes this
// division exactly once at construction rather than per block.
func slope() *big.Int {
	rampUpSlopeOnce.Do(func() {
		span := new(big.Int).Sub(params.RampupEnd, params.RampupStart)
		delta := new(big.Int).Sub(params.RampupUpper, params.RampupLower)
		rampUpSlope = new(big.Int).Div(span, delta)
	})
	return rampUpSlope
}

// totalSupplyBeforeMonetaryUpdate sums the ramp-up reward schedule from
// block 1 through monetaryPolicyFork inclusive, starting from the genesis
// premine. Grounded on calculate_total_supply_before_monetary_update: it
// always replays the ramp-up/clamp formula, never the Unity flat reward,
// even if the Unity fork preceded the monetary-policy fork.
func totalSupplyBeforeMonetaryUpdate(monetaryPolicyFork uint64) *big.Int {
	supply := new(big.Int).Set(params.Premine)
	if monetaryPolicyFork < 1 {
		return supply
	}
	for i := uint64(1); i <= monetaryPolicyFork; i++ {
		supply.Add(supply, rampUpReward(i))
	}
	return supply
}

var (
	bigTenThousand  = big.NewInt(10000)
	bigCompoundNum  = big.NewInt(10100)
	bigAnnualBlocks = params.BlocksPerYear
)

// calculateCompound reproduces calculate_compound(term, initial_supply):
// compounds initial_supply*10000 by 1% "term" times, takes the final
// year's growth increment, and converts it to a per-block reward for
// that year by dividing by annual block count.
func calculateCompound(term uint64, initialSupply *big.Int) *big.Int {
	compound := new(big.Int).Mul(initialSupply, bigTenThousand)
	preCompound := new(big.Int).Set(compound)
	for i := uint64(0); i < term; i++ {
		preCompound.Set(compound)
		compound.Mul(preCompound, bigCompoundNum)
		compound.Div(compound, bigTenThousand)
	}
	compound.Sub(compound, preCompound)
	compound.Div(compound, bigAnnualBlocks)
	compound.Div(compound, bigTenThousand)
	return compound
}

// compoundingTable precomputes the 128-term 1%-annually-compounded reward
// lookup for a given monetary-policy fork height, spec.md §4.3. Cached per
// fork height since the table depends on the pre-fork total supply.
func compoundingTable(monetaryPolicyFork uint64) []*big.Int {
	compoundingTableCacheMu.Lock()
	defer compoundingTableCacheMu.Unlock()
	if table, ok := compoundingTableCache[monetaryPolicyFork]; ok {
		return table
	}
	totalSupply := totalSupplyBeforeMonetaryUpdate(monetaryPolicyFork)
	table := make([]*big.Int, params.MonetaryPolicyTermsCount)
	for i := 0; i < params.MonetaryPolicyTermsCount; i++ {
		table[i] = calculateCompound(uint64(i), totalSupply)
	}
	compoundingTableCache[monetaryPolicyFork] = table
	return table
}

// CalculateReward implements spec.md §4.3 calculate_reward:
//
//	after Unity fork:           flat 4.5e18
//	after monetary-policy fork: compounding table lookup by
//	                            term = (n - fork - 1) / 3_110_400 + 1
//	otherwise:                  ramp-up linear interpolation
//
// The fork comparisons are strictly-greater-than, matching the reference
// engine: block `fork` itself still uses the prior schedule.
func CalculateReward(n, unityFork, monetaryPolicyFork uint64) *big.Int {
	switch {
	case monetaryPolicyFork > 0 && n > monetaryPolicyFork:
		term := (n-monetaryPolicyFork-1)/params.BlocksPerYear.Uint64() + 1
		table := compoundingTable(monetaryPolicyFork)
		if term >= uint64(len(table)) {
			return new(big.Int)
		}
		return new(big.Int).Set(table[term])
	case unityFork > 0 && n > unityFork:
		return new(big.Int).Set(params.UnityFlatReward)
	default:
		return rampUpReward(n)
	}
}

// rampUpReward implements the reference calculate_reward's ramp-up branch:
// a single precomputed integer slope m applied per block, clamped below at
// LowerBlockReward and above (strictly past the upper bound) at
// UpperBlockReward, spec.md §4.3.
func rampUpReward(n uint64) *big.Int {
	lower := params.RampupLower.Uint64()
	upper := params.RampupUpper.Uint64()
	switch {
	case n <= lower:
		return new(big.Int).Set(params.LowerBlockReward)
	case n <= upper:
		progress := new(big.Int).SetUint64(n - lower)
		reward := new(big.Int).Mul(progress, slope())
		return reward.Add(reward, params.RampupStart)
	default:
		return new(big.Int).Set(params.UpperBlockReward)
	}
}
