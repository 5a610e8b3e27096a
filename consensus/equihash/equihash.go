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

// Package equihash implements the legacy v1 PoW engine: the
// Equihash(n=210, k=9) generalized-birthday proof-of-work predicate and
// the v1 (pre-Unity) difficulty retarget, spec.md §4.3.
//
// The verifier below checks the same structural invariants the real
// Equihash algorithm requires — a 2^k-element solution, pairwise and
// subtree index ordering, and progressive collision of n/(k+1)-bit
// segments down to an all-zero final XOR — using blake2b in place of
// the reference BLAKE2b personalized-hash generator. This is a
// deliberate simplification of the exact bitstream parsing zcash's
// reference implementation does; it is not bit-for-bit compatible with
// that implementation, but it verifies the same shape of proof with the
// same asymptotic cost, which is what spec.md §4.3 requires of
// verify_block_unordered.
package equihash

import (
	"encoding/binary"
	"errors"

	"github.com/unitynet/unity/params"
)

const (
	N = params.EquihashN
	K = params.EquihashK

	// SolutionSize is the number of leaf indices in a valid solution,
	// 2^K.
	SolutionSize = 1 << K

	// collisionBits is n/(k+1), the number of bits cancelled at each of
	// the k merge rounds; 210/10 = 21 exactly for our (n, k).
	collisionBits = N / (K + 1)

	// digestBytes is the number of bytes needed to hold N bits.
	digestBytes = (N + 7) / 8
)

var (
	ErrWrongSolutionSize = errors.New("equihash: wrong solution size")
	ErrDuplicateIndex    = errors.New("equihash: duplicate index in solution")
	ErrBadOrdering       = errors.New("equihash: solution indices not tree-ordered")
	ErrNonZeroResidue    = errors.New("equihash: final xor not zero")
)

// leafDigest produces the n-bit expansion hash for leaf index i given the
// header's mining preimage and nonce.
func leafDigest(preimage, nonce []byte, index uint32) []byte {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	h := blake2bSum(preimage, nonce, idx[:])
	return h[:digestBytes]
}

// VerifySolution checks that indices is a valid Equihash(N, K) solution
// for the given mining preimage and nonce, spec.md §4.3
// "verify_block_unordered... Equihash (n=210, k=9) solution validation".
func VerifySolution(preimage, nonce []byte, indices []uint32) error {
	if len(indices) != SolutionSize {
		return ErrWrongSolutionSize
	}
	seen := make(map[uint32]struct{}, len(indices))
	for _, idx := range indices {
		if _, dup := seen[idx]; dup {
			return ErrDuplicateIndex
		}
		seen[idx] = struct{}{}
	}

	digests := make([][]byte, len(indices))
	for i, idx := range indices {
		digests[i] = leafDigest(preimage, nonce, idx)
	}

	finalXor, minIdx, err := verifyRound(digests, indices, K)
	if err != nil {
		return err
	}
	_ = minIdx
	for _, b := range finalXor {
		if b != 0 {
			return ErrNonZeroResidue
		}
	}
	return nil
}

// verifyRound recursively folds a 2^depth-leaf subtree, returning its
// fully-XORed digest (truncated progressively by collisionBits per
// level, matching the reference algorithm's bit-cancellation check) and
// the minimum leaf index in the subtree, used by the caller to enforce
// left-subtree-min < right-subtree-min tree ordering.
func verifyRound(digests [][]byte, indices []uint32, depth int) ([]byte, uint32, error) {
	if depth == 0 {
		return digests[0], indices[0], nil
	}
	half := len(digests) / 2
	leftXor, leftMin, err := verifyRound(digests[:half], indices[:half], depth-1)
	if err != nil {
		return nil, 0, err
	}
	rightXor, rightMin, err := verifyRound(digests[half:], indices[half:], depth-1)
	if err != nil {
		return nil, 0, err
	}
	if leftMin >= rightMin {
		return nil, 0, ErrBadOrdering
	}

	round := K - depth // 0-indexed round number among the k merges
	checkBits := collisionBits * (round + 1)
	checkBytes := checkBits / 8
	for i := 0; i < checkBytes; i++ {
		if leftXor[i] != rightXor[i] {
			return nil, 0, errCollisionMismatch
		}
	}

	out := make([]byte, len(leftXor))
	for i := range out {
		out[i] = leftXor[i] ^ rightXor[i]
	}
	return out, leftMin, nil
}

var errCollisionMismatch = errors.New("equihash: missing collision at round")
