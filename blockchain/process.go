package blockchain

import (
	"fmt"

	"github.com/forgenet/forged/wire"
)

// ProcessBlock is the main workhorse for handling insertion of new
// blocks into the chain. Candidate blocks arrive here whether freshly
// forged locally (broadcast=true), gossiped from peers, or replayed
// from storage. The stages run strictly in order and abort on the
// first error:
//
//  1. fill canonical defaults (peer blocks arrive compact)
//  2. normalize the encoded fields
//  3. run the full verification predicates
//  4. relay the reduced block (locally forged blocks only)
//  5. reject blocks already persisted
//  6. validate the generator owns the block's slot
//  7. check every transaction, in block order
//  8. hand off to the chain-application stage
//
// saveBlock is forwarded to the application stage and controls whether
// the block itself is persisted (replayed blocks already are).
func (c *Chain) ProcessBlock(block *wire.Block, broadcast bool, saveBlock bool) error {
	if c.IsCleaning() {
		return ruleError(ErrCleaningUp, "Cleaning up")
	}
	if !c.IsLoaded() {
		return ruleError(ErrBlockchainLoading, "Blockchain is loading")
	}

	// Locally forged blocks arrive fully populated; peer blocks arrive
	// compact and need their defaults restored first.
	if !broadcast {
		AddBlockProperties(block)
	}

	if err := block.Normalize(); err != nil {
		return err
	}

	receipt := c.VerifyBlock(block)
	if !receipt.Verified {
		log.Errorf("Block %s verification failed: %s", block.ID, receipt.Errors[0])
		return ruleError(ErrVerifyFailed, receipt.Errors[0])
	}

	if broadcast {
		reducedBlock := DeleteBlockProperties(block)
		c.applier.BroadcastReducedBlock(reducedBlock, broadcast)
	}

	exists, err := c.store.BlockExists(block.ID)
	if err != nil {
		return err
	}
	if exists {
		return ruleError(ErrDuplicateBlock, fmt.Sprintf("Block %s already exists", block.ID))
	}

	if err := c.delegates.ValidateBlockSlot(block); err != nil {
		c.delegates.Fork(block, ForkCauseWrongSlot)
		return err
	}

	if err := c.checkTransactions(block); err != nil {
		return err
	}

	return c.applier.ApplyBlock(block, saveBlock)
}

// checkTransactions validates every transaction in block order.
// Transactions are processed serially: later transactions may read
// state mutated by earlier ones in the same block.
func (c *Chain) checkTransactions(block *wire.Block) error {
	for _, tx := range block.Transactions {
		if err := c.checkTransaction(block, tx); err != nil {
			return err
		}
	}
	return nil
}

// checkTransaction runs the per-transaction waterfall: derive the id,
// bind the transaction to the block, reject confirmed duplicates, then
// validate against the sender account.
//
// A confirmed duplicate is fork cause 2. The side-effect order is part
// of the contract: the fork is reported first, then the unconfirmed
// effect is undone, then the transaction leaves the pool, and only then
// is the error surfaced.
func (c *Chain) checkTransaction(block *wire.Block, tx *wire.Transaction) error {
	id, err := tx.ComputeID()
	if err != nil {
		return err
	}
	tx.ID = id
	tx.BlockID = block.ID

	if err := c.transactions.CheckConfirmed(tx); err != nil {
		c.delegates.Fork(block, ForkCauseTxDuplicate)
		if undoErr := c.transactions.UndoUnconfirmed(tx); undoErr != nil {
			log.Errorf("Failed to undo unconfirmed transaction %s: %s", tx.ID, undoErr)
		}
		c.transactions.RemoveTransaction(tx.ID)
		return err
	}

	// An unknown sender is a cold wallet; the transaction backend
	// decides whether the transaction type admits one.
	sender, err := c.accounts.GetByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}

	return c.transactions.Verify(tx, sender)
}
