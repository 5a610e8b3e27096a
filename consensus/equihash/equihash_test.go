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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifySolutionRejectsWrongSize(t *testing.T) {
	err := VerifySolution([]byte("preimage"), []byte("nonce"), []uint32{1, 2, 3})
	require.ErrorIs(t, err, ErrWrongSolutionSize)
}

func TestVerifySolutionRejectsDuplicateIndex(t *testing.T) {
	indices := make([]uint32, SolutionSize)
	for i := range indices {
		indices[i] = 0
	}
	err := VerifySolution([]byte("preimage"), []byte("nonce"), indices)
	require.ErrorIs(t, err, ErrDuplicateIndex)
}

func TestVerifySolutionRejectsGarbageIndices(t *testing.T) {
	indices := make([]uint32, SolutionSize)
	for i := range indices {
		indices[i] = uint32(i) // arbitrary, almost certainly not a real solution
	}
	err := VerifySolution([]byte("preimage"), []byte("nonce"), indices)
	require.Error(t, err)
}
