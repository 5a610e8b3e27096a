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

// Package params collects the protocol constants and per-chain
// configuration consumed by the consensus engine and block lifecycle.
package params

import "math/big"

// ChainConfig is the parsed, already-validated chain configuration the
// core consumes. Loading it from a config file is out of scope (spec.md
// §1); this struct is the boundary type external wiring code populates.
type ChainConfig struct {
	NetworkID uint64

	// UnityBlock is the first block number sealed under the v2 (hybrid
	// PoW/PoS) engine; blocks before it use the legacy v1 PoW engine.
	UnityBlock uint64

	// MonetaryPolicyBlock is the fork activating the compounding reward
	// schedule (spec.md §4.3 calculate_reward).
	MonetaryPolicyBlock uint64

	// ExtraDataMaxSize bounds header.ExtraData, spec.md §3.
	ExtraDataMaxSize int
}

func (c *ChainConfig) IsUnity(number uint64) bool {
	return number >= c.UnityBlock
}

func (c *ChainConfig) IsMonetaryPolicy(number uint64) bool {
	return c.MonetaryPolicyBlock > 0 && number >= c.MonetaryPolicyBlock
}

// Protocol-wide constants, spec.md §4.3.
var (
	MinimumPowDifficulty = big.NewInt(16)
	MinimumPosDifficulty = big.NewInt(16)

	// DifficultyBoundDivisor is the "2048" in `base = max(d/2048, 1)`.
	DifficultyBoundDivisor = big.NewInt(2048)

	// v2 (Unity) difficulty knobs, spec.md §4.3.
	UnityDifficultyBarrierSeconds int64 = 7
	// fixed-point numerator/denominator for *0.952381 and *1.05.
	UnityDecreaseNum = big.NewInt(952381)
	UnityDecreaseDen = big.NewInt(1000000)
	UnityIncreaseNum = big.NewInt(105)
	UnityIncreaseDen = big.NewInt(100)

	// Reward schedule constants, spec.md §4.3. Values match the reference
	// chain's default RewardsCalculator configuration: lower/upper block
	// reward are independent clamp constants, not restated copies of
	// start/end, but this chain's defaults set them equal.
	RampupLower = big.NewInt(0)
	RampupUpper = big.NewInt(259_200)
	RampupStart = new(big.Int).SetUint64(748_994_641_621_655_092)
	RampupEnd   = new(big.Int).SetUint64(1_497_989_283_243_310_185)
	LowerBlockReward = new(big.Int).Set(RampupStart)
	UpperBlockReward = new(big.Int).Set(RampupEnd)

	UnityFlatReward = new(big.Int).SetUint64(4_500_000_000_000_000_000) // 4.5e18

	// Premine is the genesis allocation the monetary-policy compounding
	// table bases its pre-fork total-supply replay on. No genesis
	// allocation figure survived the spec distillation, so this defaults
	// to zero; a deployment supplying a real genesis block overrides it.
	Premine = big.NewInt(0)

	BlocksPerYear = big.NewInt(3_110_400)
	// MonetaryPolicyTermsCount is the length of the precomputed
	// compounding-term lookup table (spec.md: "128 terms").
	MonetaryPolicyTermsCount = 128

	// HeadersPerRequest bounds sync.HeadersReq, spec.md §4.6.
	HeadersPerRequest = 96

	// StagedBlockBufferLimit bounds distinct parent hashes held in the
	// sync layer's staged-block cache, spec.md §4.6.
	StagedBlockBufferLimit = 32

	// ExtraDataMaxSize default, spec.md §3.
	DefaultExtraDataMaxSize = 32
)

// Seal arities, spec.md §3: "2 fields for PoW {nonce, solution}, 3 for
// PoS {seed, signature, pk}".
const (
	PowSealFields = 2
	PosSealFields = 3
)

// Equihash parameters, spec.md GLOSSARY.
const (
	EquihashN = 210
	EquihashK = 9
)
