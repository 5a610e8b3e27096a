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

// Package vm defines the execute(params, substate) capability boundary
// the block lifecycle (package work) calls into for each transaction.
// Actual bytecode interpretation (FVM/AVM semantics) is explicitly out
// of scope for this core (spec.md §1, "smart-contract execution
// semantics ... are explicitly out of scope"); this package only fixes
// the call shape and ships a minimal reference executor — a plain value
// transfer with gas accounting — that exercises the boundary the way a
// real interpreter would be wired in.
package vm

import (
	"errors"
	"math/big"

	"github.com/unitynet/unity/blockchain/state"
	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/crypto"
	"github.com/unitynet/unity/rlp"
)

var (
	ErrInsufficientBalance = errors.New("vm: insufficient balance for gas + value")
	ErrNonceMismatch       = errors.New("vm: nonce mismatch")
)

// Result is what push_transaction folds into a Receipt.
type Result struct {
	GasUsed         uint64
	Success         bool
	ReturnData      []byte
	ContractAddress common.Address
	Logs            []*types.Log
}

// Executor is the capability interface substituting for a real FVM/AVM:
// execute one transaction against a state snapshot and report the
// outcome. Production wiring supplies a real interpreter here; this
// package's Reference implementation is a test double sufficient to
// drive the block lifecycle end to end.
type Executor interface {
	Execute(db *state.StateDB, header *types.Header, tx *types.SignedTransaction) (*Result, error)
}

// Reference is a minimal Executor: sender pays gas*gasPrice plus value
// up front, nonce increments, value moves to the recipient (or to a
// freshly derived contract address for Create actions, which also
// installs tx.Data as the account's code). It performs no bytecode
// interpretation — there is none to perform, by design (see package doc).
type Reference struct{}

func (Reference) Execute(db *state.StateDB, header *types.Header, tx *types.SignedTransaction) (*Result, error) {
	sender := tx.From()
	if db.Nonce(sender) != tx.Nonce {
		return nil, ErrNonceMismatch
	}
	gasCost := new(big.Int).Mul(tx.GasPrice, new(big.Int).SetUint64(tx.Gas))
	total := new(big.Int).Add(gasCost, tx.Value)
	if db.Balance(sender).Cmp(total) < 0 {
		return nil, ErrInsufficientBalance
	}

	db.SubBalance(sender, total)
	db.IncNonce(sender)

	to := tx.To
	if tx.Kind == types.ActionCreate {
		to = deriveContractAddress(sender, tx.Nonce)
		db.InitCode(to, tx.Data)
	}
	if tx.Value.Sign() != 0 {
		db.AddBalance(to, tx.Value)
	}

	return &Result{GasUsed: tx.Gas, Success: true, ContractAddress: to}, nil
}

func deriveContractAddress(sender common.Address, nonce uint64) common.Address {
	return common.BytesToAddress(crypto.Blake2b256(sender.Bytes(), rlp.EncodeUint(nonce)).Bytes())
}
