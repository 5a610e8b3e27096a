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

package work

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unitynet/unity/blockchain/state"
	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/consensus"
	"github.com/unitynet/unity/consensus/unity"
	"github.com/unitynet/unity/crypto"
	"github.com/unitynet/unity/params"
	"github.com/unitynet/unity/storage/database"
	"github.com/unitynet/unity/storage/statedb"
	"github.com/unitynet/unity/vm"
)

func newTestStateDB(t *testing.T) *state.StateDB {
	t.Helper()
	db := state.NewDatabase(statedb.NewOverlayRecentDB(database.NewMemDatabase()), false)
	s, err := state.New(common.Hash{}, db)
	require.NoError(t, err)
	return s
}

func signedTx(t *testing.T, nonce uint64, to common.Address, value int64, txType types.TxType) *types.SignedTransaction {
	t.Helper()
	pub, priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx := &types.SignedTransaction{
		Nonce:    nonce,
		GasPrice: big.NewInt(1),
		Gas:      21000,
		Kind:     types.ActionCall,
		To:       to,
		Value:    big.NewInt(value),
		TxType:   txType,
	}
	tx.Sign(pub, priv)
	return tx
}

// signedTxFrom builds a transaction signed by an already-generated key,
// used to chain a second nonce from the same sender.
func signedTxFrom(pub, priv []byte, nonce uint64, to common.Address, value int64, txType types.TxType) *types.SignedTransaction {
	tx := &types.SignedTransaction{
		Nonce:    nonce,
		GasPrice: big.NewInt(1),
		Gas:      21000,
		Kind:     types.ActionCall,
		To:       to,
		Value:    big.NewInt(value),
		TxType:   txType,
	}
	tx.Sign(pub, priv)
	return tx
}

func newOpenBlock(t *testing.T, config *params.ChainConfig, number uint64) (*ExecutedBlock, common.Address) {
	t.Helper()
	db := newTestStateDB(t)
	author := common.BytesToAddress([]byte("author"))
	header := &types.Header{Number: number, Author: author, GasLimit: 10_000_000}
	parent := &types.Header{Number: number - 1}
	engine := unity.New(config)
	return New(config, engine, vm.Reference{}, parent, db, header), author
}

func TestPushTransactionExecutesAndAccumulatesGas(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000}
	block, _ := newOpenBlock(t, config, 5)

	to := common.BytesToAddress([]byte("bob"))
	tx := signedTx(t, 0, to, 100, types.TxTypeFVM)
	block.db.AddBalance(tx.From(), big.NewInt(1_000_000))

	receipt, err := block.PushTransaction(tx)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.True(t, receipt.Status)
	require.Equal(t, uint64(21000), block.gasUsed)
	require.Equal(t, 0, block.db.Balance(to).Cmp(big.NewInt(100)))
}

func TestPushTransactionRejectsAlreadyImported(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000}
	block, _ := newOpenBlock(t, config, 5)

	to := common.BytesToAddress([]byte("bob"))
	tx := signedTx(t, 0, to, 100, types.TxTypeFVM)
	block.db.AddBalance(tx.From(), big.NewInt(1_000_000))

	_, err := block.PushTransaction(tx)
	require.NoError(t, err)

	_, err = block.PushTransaction(tx)
	require.ErrorIs(t, err, ErrAlreadyImported)
}

func TestPushTransactionRejectsWrongPhase(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000}
	block, _ := newOpenBlock(t, config, 5)
	require.NoError(t, block.Close())

	to := common.BytesToAddress([]byte("bob"))
	tx := signedTx(t, 0, to, 100, types.TxTypeFVM)
	_, err := block.PushTransaction(tx)
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestAVMBatchCommitsAtomically(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000, MonetaryPolicyBlock: 1}
	block, _ := newOpenBlock(t, config, 5)

	to := common.BytesToAddress([]byte("bob"))
	pub, priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx1 := signedTxFrom(pub, priv, 0, to, 100, types.TxTypeAVM)
	tx2 := signedTxFrom(pub, priv, 1, to, 50, types.TxTypeAVM)
	block.db.AddBalance(tx1.From(), big.NewInt(1_000_000))

	receipt1, err := block.PushTransaction(tx1)
	require.NoError(t, err)
	require.Nil(t, receipt1) // batched, not yet committed

	receipt2, err := block.PushTransaction(tx2)
	require.NoError(t, err)
	require.Nil(t, receipt2)

	require.Equal(t, 0, block.db.Balance(to).Cmp(big.NewInt(0)), "batch not yet applied")

	require.NoError(t, block.Close())
	require.Equal(t, 0, block.db.Balance(to).Cmp(big.NewInt(150)), "batch applied atomically on flush")
	require.Len(t, block.Receipts(), 2)
}

func TestAVMBatchRollsBackEntirelyOnFailure(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000, MonetaryPolicyBlock: 1}
	block, _ := newOpenBlock(t, config, 5)

	to := common.BytesToAddress([]byte("bob"))
	funded := signedTx(t, 0, to, 100, types.TxTypeAVM)
	block.db.AddBalance(funded.From(), big.NewInt(1_000_000))
	_, err := block.PushTransaction(funded)
	require.NoError(t, err)

	unfunded := signedTx(t, 0, to, 1, types.TxTypeAVM) // fresh, unfunded sender
	_, err = block.PushTransaction(unfunded)
	require.NoError(t, err) // still just queued

	err = block.Close()
	require.Error(t, err)
	require.Equal(t, 0, block.db.Balance(to).Cmp(big.NewInt(0)), "whole batch rejected, including the funded tx")
}

func TestPrecompileAddressNeverBatched(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000, MonetaryPolicyBlock: 1}
	block, _ := newOpenBlock(t, config, 5)

	tx := signedTx(t, 0, common.BridgeContractAddress, 1, types.TxTypeAVM)
	block.db.AddBalance(tx.From(), big.NewInt(1_000_000))

	receipt, err := block.PushTransaction(tx)
	require.NoError(t, err)
	require.NotNil(t, receipt, "precompile calls execute immediately, never batched")
}

func TestCloseReopenRestoresPreCloseState(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000}
	block, author := newOpenBlock(t, config, 1)

	require.NoError(t, block.Close())
	require.True(t, block.db.Balance(author).Sign() > 0, "reward credited on close")

	require.NoError(t, block.Reopen())
	require.Equal(t, Open, block.Phase())
	require.True(t, block.db.Balance(author).Sign() == 0, "reopen restores the pre-reward snapshot")
}

func TestLockIsIrreversible(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000}
	block, _ := newOpenBlock(t, config, 1)
	require.NoError(t, block.Close())
	require.NoError(t, block.Lock())
	require.ErrorIs(t, block.Reopen(), ErrWrongPhase)
}

func TestSealPoWRejectsEmptySeal(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000}
	block, _ := newOpenBlock(t, config, 1)
	block.header.SealType = types.SealPoW
	require.NoError(t, block.CloseAndLock())

	err := block.Seal([][]byte{{}, {}})
	require.ErrorIs(t, err, consensus.ErrInvalidSealArity)
	require.Equal(t, Locked, block.Phase())
}

type fakeStakeRegistry struct{ stake *big.Int }

func (r fakeStakeRegistry) StakeOf(pub []byte) *big.Int { return r.stake }

func TestSealPoSSucceedsWithValidSignature(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000}
	block, _ := newOpenBlock(t, config, 1)
	block.header.SealType = types.SealPoS

	pub, priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	previousSeed := common.BytesToHash([]byte("genesis-seed"))
	block.WithPoS(fakeStakeRegistry{stake: big.NewInt(1000)}, big.NewInt(100), previousSeed)

	require.NoError(t, block.CloseAndLock())

	seed := crypto.VRF(pub, previousSeed)
	seedHash := crypto.Blake2b256(seed.Bytes())
	preimage := crypto.Blake2b256(seedHash.Bytes(), block.header.ParentHash.Bytes())
	sig := crypto.Sign(priv, preimage.Bytes())

	require.NoError(t, block.Seal([][]byte{seed.Bytes(), sig, pub}))
	require.Equal(t, Sealed, block.Phase())
}

func TestSealPoSRequiresStakeRegistry(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000}
	block, _ := newOpenBlock(t, config, 1)
	block.header.SealType = types.SealPoS
	require.NoError(t, block.CloseAndLock())

	err := block.Seal([][]byte{{0x01}, {0x02}, {0x03}})
	require.ErrorIs(t, err, ErrMissingStakeRegistry)
}

func TestSealRequiresLockedPhase(t *testing.T) {
	config := &params.ChainConfig{UnityBlock: 1_000_000}
	block, _ := newOpenBlock(t, config, 1)
	err := block.Seal([][]byte{{0x01}, {0xaa}})
	require.ErrorIs(t, err, ErrWrongPhase)
}
