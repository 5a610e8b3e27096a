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

package blockchain

import (
	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/storage/statedb"
)

// DeriveShaImpl selects the transactions_root/receipts_root computation
// strategy, grounded on klaytn's blockchain/init_derive_sha.go.
type DeriveShaImpl int

const (
	ImplDeriveShaOrig DeriveShaImpl = iota
	ImplDeriveShaSimple
)

// InitDeriveSha wires the package-level types.DeriveSha indirection. Any
// value other than ImplDeriveShaSimple selects the trie-backed
// implementation; Simple exists for standalone tests that don't want a
// trie dependency. Until this is called, types.DeriveSha uses
// DeriveShaSimple.
func InitDeriveSha(impl DeriveShaImpl) {
	switch impl {
	case ImplDeriveShaSimple:
		logger.Info("using DeriveShaSimple")
		types.InitDeriveSha(types.DeriveShaSimple{})
	default:
		logger.Info("using DeriveShaOrig")
		types.InitDeriveSha(statedb.DeriveShaOrig{})
	}
}
