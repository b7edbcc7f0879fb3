package blockchain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/forgenet/forged/chaincfg"
	"github.com/forgenet/forged/slots"
	"github.com/forgenet/forged/wire"
)

// VerifyReceipt runs the stateless receipt predicates over a candidate
// block received opportunistically, before any fork decision is
// required. The candidate's height is set to lastBlock.height+1 before
// verification.
//
// Every predicate runs regardless of earlier failures; the receipt
// accumulates all errors and reverses them on finalize, so Errors[0] is
// the last error detected.
func (c *Chain) VerifyReceipt(block *wire.Block) *Receipt {
	lastBlock := c.LastBlock()
	c.setHeight(block, lastBlock)
	c.canonicalizeID(block)

	receipt := &Receipt{}
	c.verifySignature(block, receipt)
	c.verifyPreviousBlock(block, receipt)
	c.verifyAgainstLastNBlockIDs(block, receipt)
	c.verifyBlockSlotWindow(block, receipt)
	c.verifyVersion(block, receipt)
	c.verifyReward(block, receipt)
	c.verifyID(block, receipt)
	c.verifyPayload(block, receipt)

	receipt.finalize()
	return receipt
}

// VerifyBlock runs the full set of processing predicates. Relative to
// VerifyReceipt it drops the receipt-only anti-replay guards (recent-id
// window, slot window) and adds the fork-one check and strict slot
// ordering against the chain tip.
func (c *Chain) VerifyBlock(block *wire.Block) *Receipt {
	lastBlock := c.LastBlock()
	c.setHeight(block, lastBlock)
	c.canonicalizeID(block)

	receipt := &Receipt{}
	c.verifySignature(block, receipt)
	c.verifyPreviousBlock(block, receipt)
	c.verifyVersion(block, receipt)
	c.verifyReward(block, receipt)
	c.verifyID(block, receipt)
	c.verifyPayload(block, receipt)
	c.verifyForkOne(block, lastBlock, receipt)
	c.verifyBlockSlot(block, lastBlock, receipt)

	receipt.finalize()
	return receipt
}

// setHeight pins the candidate's height to one above the chain tip.
func (c *Chain) setHeight(block, lastBlock *wire.Block) {
	block.Height = lastBlock.Height + 1
}

// canonicalizeID overwrites any peer-supplied id with the id derived
// from the canonical bytes before the predicates run. The id field is
// not covered by the block signature, so predicates keyed by id (the
// reward-exception allowlist, the recent-id window) must never trust
// the inbound value. Derivation failures clear the field and are
// reported by verifyID.
func (c *Chain) canonicalizeID(block *wire.Block) {
	id, err := block.ComputeID()
	if err != nil {
		block.ID = ""
		return
	}
	block.ID = id
}

func (c *Chain) verifySignature(block *wire.Block, receipt *Receipt) {
	valid, err := block.VerifySignature()
	if err != nil {
		receipt.appendError(err.Error())
		return
	}
	if !valid {
		receipt.appendError("Failed to verify block signature")
	}
}

func (c *Chain) verifyPreviousBlock(block *wire.Block, receipt *Receipt) {
	if block.PreviousBlock == "" && block.Height != 1 {
		receipt.appendError("Invalid previous block")
	}
}

func (c *Chain) verifyAgainstLastNBlockIDs(block *wire.Block, receipt *Receipt) {
	if c.window.contains(block.ID) {
		receipt.appendError("Block already exists in chain")
	}
}

func (c *Chain) verifyBlockSlotWindow(block *wire.Block, receipt *Receipt) {
	blockSlot := slots.SlotNumber(c.params, block.Timestamp)
	currentSlot := slots.CurrentSlot(c.params, c.timeSource)

	if currentSlot-blockSlot > int64(c.params.BlockSlotWindow) {
		receipt.appendError("Block slot is too old")
	}
	if currentSlot < blockSlot {
		receipt.appendError("Block slot is in the future")
	}
}

func (c *Chain) verifyVersion(block *wire.Block, receipt *Receipt) {
	if block.Version > 0 {
		receipt.appendError("Invalid block version")
	}
}

func (c *Chain) verifyReward(block *wire.Block, receipt *Receipt) {
	expectedReward := CalcBlockReward(block.Height, c.params)
	if _, exempt := c.params.RewardExceptions[block.ID]; exempt {
		return
	}
	if block.Height != 1 && block.Reward != expectedReward {
		receipt.appendError(fmt.Sprintf("Invalid block reward: %d expected: %d",
			block.Reward, expectedReward))
	}
}

// verifyID recomputes the block id from the canonical bytes and
// reports derivation failures. The assignment is an idempotent refill:
// canonicalizeID already ran before the predicate chain, so later
// pipeline stages see the recomputed id even for compact peer blocks.
func (c *Chain) verifyID(block *wire.Block, receipt *Receipt) {
	id, err := block.ComputeID()
	if err != nil {
		receipt.appendError(err.Error())
		return
	}
	block.ID = id
}

func (c *Chain) verifyPayload(block *wire.Block, receipt *Receipt) {
	if block.PayloadLength > chaincfg.MaxPayloadLength {
		receipt.appendError("Payload length is too long")
	}
	if len(block.Transactions) != int(block.NumberOfTransactions) {
		receipt.appendError("Included transactions do not match block transactions count")
	}
	if len(block.Transactions) > chaincfg.MaxTxsPerBlock {
		receipt.appendError("Number of transactions exceeds maximum per block")
	}

	var totalAmount, totalFee uint64
	hasher := sha256.New()
	seen := make(map[string]struct{})
	for _, tx := range block.Transactions {
		txBytes, err := tx.Bytes()
		if err != nil {
			receipt.appendError(err.Error())
			continue
		}

		txID := tx.ID
		if txID == "" {
			if computed, err := tx.ComputeID(); err == nil {
				txID = computed
			}
		}
		if _, exists := seen[txID]; exists {
			receipt.appendError(fmt.Sprintf("Encountered duplicate transaction: %s", txID))
		}
		seen[txID] = struct{}{}

		hasher.Write(txBytes)
		totalAmount += tx.Amount
		totalFee += tx.Fee
	}

	if hex.EncodeToString(hasher.Sum(nil)) != block.PayloadHash {
		receipt.appendError("Invalid payload hash")
	}
	if totalAmount != block.TotalAmount {
		receipt.appendError("Invalid total amount")
	}
	if totalFee != block.TotalFee {
		receipt.appendError("Invalid total fee")
	}
}

// verifyForkOne flags a previous-block mismatch against the chain tip.
// The delegate subsystem is notified before the error is recorded.
func (c *Chain) verifyForkOne(block, lastBlock *wire.Block, receipt *Receipt) {
	if block.PreviousBlock != "" && block.PreviousBlock != lastBlock.ID {
		c.delegates.Fork(block, ForkCausePreviousBlock)
		receipt.appendError(fmt.Sprintf("Invalid previous block: %s expected: %s",
			block.PreviousBlock, lastBlock.ID))
	}
}

// verifyBlockSlot enforces strict slot ordering: the candidate's slot
// must come after the tip's slot and must not lie in the future.
func (c *Chain) verifyBlockSlot(block, lastBlock *wire.Block, receipt *Receipt) {
	blockSlot := slots.SlotNumber(c.params, block.Timestamp)
	lastBlockSlot := slots.SlotNumber(c.params, lastBlock.Timestamp)

	if blockSlot > slots.CurrentSlot(c.params, c.timeSource) || blockSlot <= lastBlockSlot {
		receipt.appendError("Invalid block timestamp")
	}
}
