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

// Package work implements the block-under-construction state machine,
// spec.md §4.4: Open -> Closed -> Locked -> Sealed, plus the mining
// agent that drives sealing.
package work

import (
	"errors"
	"math/big"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/unitynet/unity/blockchain/state"
	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/consensus"
	"github.com/unitynet/unity/consensus/unity"
	"github.com/unitynet/unity/log"
	"github.com/unitynet/unity/params"
	"github.com/unitynet/unity/vm"
)

var logger = log.NewModuleLogger(log.Work)

// Phase is one of the four states spec.md §4.4 names.
type Phase int

const (
	Open Phase = iota
	Closed
	Locked
	Sealed
)

func (p Phase) String() string {
	switch p {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Locked:
		return "locked"
	case Sealed:
		return "sealed"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyImported      = errors.New("work: transaction already in transactions_set")
	ErrWrongPhase           = errors.New("work: operation not valid in current phase")
	ErrPrecompileUnsupported = errors.New("work: precompile address transactions are never AVM-batched")
	ErrMissingStakeRegistry = errors.New("work: pos seal requested without a stake registry configured")
)

// ExecutedBlock is the mutable block under construction. One instance
// owns its StateDB exclusively (copy-on-write isolated from siblings),
// spec.md §4.2/§4.4.
type ExecutedBlock struct {
	mu sync.Mutex

	phase Phase

	config   *params.ChainConfig
	engine   consensus.Engine
	executor vm.Executor

	header *types.Header
	parent *types.Header

	db            *state.StateDB
	unclosedState *state.StateDB // retained snapshot for reopen, spec.md §4.4 "Closed"

	transactions    types.Transactions
	receipts        types.Receipts
	transactionsSet mapset.Set[common.Hash]

	gasUsed uint64

	// pendingAVMBatch accumulates AVM-typed transactions post-monetary-
	// policy fork until a non-batchable transaction or Close forces a
	// flush, at which point the whole batch commits atomically or not
	// at all, spec.md §4.4.
	pendingAVMBatch types.Transactions

	// PoS sealing context, set via WithPoS before Seal is called for a
	// PoS-typed header.
	registry     unity.StakeRegistry
	minStake     *big.Int
	previousSeed common.Hash
}

// New opens a block for construction against parent, with db already
// forked (copy-on-write) from the parent's committed state.
func New(config *params.ChainConfig, engine consensus.Engine, executor vm.Executor, parent *types.Header, db *state.StateDB, header *types.Header) *ExecutedBlock {
	return &ExecutedBlock{
		phase:           Open,
		config:          config,
		engine:          engine,
		executor:        executor,
		header:          header,
		parent:          parent,
		db:              db,
		transactionsSet: mapset.NewSet[common.Hash](),
		minStake:        big.NewInt(0),
	}
}

// WithPoS supplies the stake registry, minimum stake and previous PoS
// seed Seal needs to validate a PoS seal; a no-op for PoW blocks.
func (b *ExecutedBlock) WithPoS(registry unity.StakeRegistry, minStake *big.Int, previousSeed common.Hash) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registry = registry
	b.minStake = minStake
	b.previousSeed = previousSeed
}

func (b *ExecutedBlock) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

func (b *ExecutedBlock) Header() *types.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.header
}

func (b *ExecutedBlock) Transactions() types.Transactions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transactions
}

func (b *ExecutedBlock) Receipts() types.Receipts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.receipts
}

func isPrecompile(addr common.Address) bool {
	return addr == common.BridgeContractAddress || addr == common.TotalCurrencyAddress
}

// PushTransaction runs tx against current state, spec.md §4.4 Open.
// Transactions already present in transactions_set are rejected as
// AlreadyImported without touching state. AVM-typed transactions past
// the monetary-policy fork, except calls to the reserved precompile
// addresses, are queued into a contiguous batch instead of executing
// immediately; their receipt is available only once the batch flushes.
func (b *ExecutedBlock) PushTransaction(tx *types.SignedTransaction) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.phase != Open {
		return nil, ErrWrongPhase
	}
	hash := tx.Hash()
	if b.transactionsSet.Contains(hash) {
		return nil, ErrAlreadyImported
	}

	batchable := tx.TxType == types.TxTypeAVM && !isPrecompile(tx.To) && b.config.IsMonetaryPolicy(b.header.Number)
	if !batchable {
		if len(b.pendingAVMBatch) > 0 {
			if err := b.flushAVMBatchLocked(); err != nil {
				return nil, err
			}
		}
		return b.executeLocked(tx, hash)
	}

	b.pendingAVMBatch = append(b.pendingAVMBatch, tx)
	b.transactionsSet.Add(hash)
	return nil, nil
}

func (b *ExecutedBlock) executeLocked(tx *types.SignedTransaction, hash common.Hash) (*types.Receipt, error) {
	result, err := b.executor.Execute(b.db, b.header, tx)
	if err != nil {
		return nil, err
	}
	receipt := &types.Receipt{
		TxHash:          hash,
		Status:          result.Success,
		GasUsed:         result.GasUsed,
		Logs:            result.Logs,
		ContractAddress: result.ContractAddress,
	}
	b.gasUsed += result.GasUsed
	receipt.CumulativeGas = b.gasUsed
	b.transactions = append(b.transactions, tx)
	b.receipts = append(b.receipts, receipt)
	b.transactionsSet.Add(hash)
	return receipt, nil
}

// flushAVMBatchLocked replays the pending AVM batch against a trial copy
// of state, committing it in its entirety only if every transaction in
// the batch succeeds — spec.md §4.4 "executed atomically".
func (b *ExecutedBlock) flushAVMBatchLocked() error {
	batch := b.pendingAVMBatch
	b.pendingAVMBatch = nil
	if len(batch) == 0 {
		return nil
	}

	trial := b.db.Copy()
	type outcome struct {
		tx      *types.SignedTransaction
		receipt *types.Receipt
	}
	outcomes := make([]outcome, 0, len(batch))
	gasUsed := b.gasUsed
	for _, tx := range batch {
		result, err := b.executor.Execute(trial, b.header, tx)
		if err != nil {
			for _, tx := range batch {
				b.transactionsSet.Remove(tx.Hash())
			}
			return err
		}
		gasUsed += result.GasUsed
		outcomes = append(outcomes, outcome{tx: tx, receipt: &types.Receipt{
			TxHash:          tx.Hash(),
			Status:          result.Success,
			GasUsed:         result.GasUsed,
			CumulativeGas:   gasUsed,
			Logs:            result.Logs,
			ContractAddress: result.ContractAddress,
		}})
	}

	b.db = trial
	b.gasUsed = gasUsed
	for _, o := range outcomes {
		b.transactions = append(b.transactions, o.tx)
		b.receipts = append(b.receipts, o.receipt)
	}
	return nil
}

// Close credits the block author's reward, fills in the header roots
// derived from the accumulated transactions/receipts/state, and
// transitions Open -> Closed. The pre-reward state is retained so Reopen
// can restore it, spec.md §4.4.
func (b *ExecutedBlock) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked()
}

func (b *ExecutedBlock) closeLocked() error {
	if b.phase != Open {
		return ErrWrongPhase
	}
	if err := b.flushAVMBatchLocked(); err != nil {
		return err
	}

	b.unclosedState = b.db.Copy()

	reward := b.engine.OnCloseBlock(b.header)
	if reward.Sign() > 0 {
		b.db.AddBalance(b.header.Author, reward)
	}

	b.header.GasUsed = b.gasUsed
	b.header.TransactionsRoot = types.DeriveSha(b.transactions)
	b.header.ReceiptsRoot = types.DeriveSha(b.receipts)
	b.header.LogBloom = types.Receipts(b.receipts).MergedBloom()
	b.header.StateRoot = b.db.IntermediateRoot()

	b.phase = Closed
	return nil
}

// Reopen restores the pre-close snapshot and returns to Open, spec.md
// §4.4 "reversible by reopening".
func (b *ExecutedBlock) Reopen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.phase != Closed {
		return ErrWrongPhase
	}
	b.db = b.unclosedState
	b.unclosedState = nil
	b.phase = Open
	return nil
}

// Lock makes a Closed block irreversible, spec.md §4.4.
func (b *ExecutedBlock) Lock() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.phase != Closed {
		return ErrWrongPhase
	}
	b.unclosedState = nil
	b.phase = Locked
	return nil
}

// CloseAndLock is the Open -> Locked shortcut spec.md §4.4 shows as a
// single transition, used by the mining path which never reopens.
func (b *ExecutedBlock) CloseAndLock() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.closeLocked(); err != nil {
		return err
	}
	b.unclosedState = nil
	b.phase = Locked
	return nil
}

// Seal appends seal_fields to the header (interpreted per header.SealType)
// and re-validates them against the engine: PoW re-runs
// verify_block_basic + verify_block_unordered; PoS re-runs the PoS seal
// checks against the seal parent's seed chain, spec.md §4.4 "Sealed".
func (b *ExecutedBlock) Seal(sealFields [][]byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.phase != Locked {
		return ErrWrongPhase
	}
	seal, err := types.SealFromFields(b.header.SealType, sealFields)
	if err != nil {
		return err
	}
	b.header.Seal = seal

	switch b.header.SealType {
	case types.SealPoW:
		if err := b.engine.VerifyBlockBasic(b.header); err != nil {
			return err
		}
		if err := b.engine.VerifyBlockUnordered(b.header); err != nil {
			return err
		}
	case types.SealPoS:
		if b.registry == nil {
			return ErrMissingStakeRegistry
		}
		if err := unity.VerifyPoSSeal(b.header, b.previousSeed, b.registry, b.minStake); err != nil {
			return err
		}
	}

	b.phase = Sealed
	return nil
}

// Block materializes the immutable types.Block once sealing is done.
func (b *ExecutedBlock) Block() *types.Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	return types.NewBlock(b.header, b.transactions)
}

// CommitState flushes the block's account trie into the underlying
// journal-backed KV store under era, returning the resulting state root.
// Valid once the block is Locked or Sealed; the caller (blockchain's
// import pipeline) still owns sealing the era into the journal via
// OverlayRecentDB.JournalUnder once every trie touched by this commit has
// been staged, spec.md §4.5 step 6.
func (b *ExecutedBlock) CommitState(era uint64) (common.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.phase != Locked && b.phase != Sealed {
		return common.Hash{}, ErrWrongPhase
	}
	return b.db.Commit(era)
}
