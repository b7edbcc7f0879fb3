package blockchain

import (
	"github.com/forgenet/forged/wire"
)

// AddBlockProperties fills the canonical defaults on a block received
// in compact form: zero for the numeric fields, an empty sequence for
// transactions, and the transaction count derived from the sequence
// when the field is unset. Peer blocks arrive compact; locally forged
// blocks are already fully populated, so the operation is idempotent.
func AddBlockProperties(block *wire.Block) *wire.Block {
	if block.Transactions == nil {
		block.Transactions = []*wire.Transaction{}
	}
	if block.NumberOfTransactions == 0 {
		block.NumberOfTransactions = uint32(len(block.Transactions))
	}
	return block
}

// DeleteBlockProperties deep-copies the block and strips every field
// that holds its canonical default, producing the compact form used for
// broadcast. It is the inverse of AddBlockProperties on the set of
// canonical defaults.
func DeleteBlockProperties(block *wire.Block) *wire.Block {
	reduced := block.Copy()
	if reduced.NumberOfTransactions == uint32(len(reduced.Transactions)) {
		reduced.NumberOfTransactions = 0
	}
	if len(reduced.Transactions) == 0 {
		reduced.Transactions = nil
	}
	return reduced
}
