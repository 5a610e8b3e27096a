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
	"errors"
	"math/big"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/crypto"
)

var (
	ErrInvalidPoSSignature = errors.New("unity: invalid pos seal signature")
	ErrSeedChainBroken     = errors.New("unity: pos seed does not match vrf chain")
	ErrInsufficientStake   = errors.New("unity: stake below pos threshold")
)

// StakeRegistry is the minimal read surface PoS validation needs against
// the stake-registry contract state at the seal's parent block, spec.md
// §4.3 "stake lookup against the stake-registry contract at parent".
type StakeRegistry interface {
	StakeOf(pub []byte) *big.Int
}

// VerifyPoSSeal checks the three PoS invariants spec.md §4.3 lists:
// signature over {seed_hash, parent_hash}, a VRF seed chain consistent
// with the previous seed, and a stake lookup meeting minStake.
func VerifyPoSSeal(header *types.Header, previousSeed common.Hash, registry StakeRegistry, minStake *big.Int) error {
	seal := header.Seal
	seedHash := crypto.Blake2b256(seal.Seed)
	preimage := crypto.Blake2b256(seedHash.Bytes(), header.ParentHash.Bytes())
	if !crypto.VerifySignature(seal.PublicKey, preimage.Bytes(), seal.Signature) {
		return ErrInvalidPoSSignature
	}

	expectedSeed := crypto.VRF(seal.PublicKey, previousSeed)
	if expectedSeed != common.BytesToHash(seal.Seed) {
		return ErrSeedChainBroken
	}

	stake := registry.StakeOf(seal.PublicKey)
	if stake == nil || stake.Cmp(minStake) < 0 {
		return ErrInsufficientStake
	}
	return nil
}
