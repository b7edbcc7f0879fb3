package dbaccess

import (
	"github.com/forgenet/forged/wire"
)

var transactionBucket = []byte("tx/")

func transactionKey(id string) []byte {
	return append(transactionBucket[:len(transactionBucket):len(transactionBucket)], id...)
}

// storeTransactionIndex records a confirmed transaction id and the
// block that carries it.
func (ctx *DatabaseContext) storeTransactionIndex(tx *wire.Transaction) error {
	return ctx.db.Put(transactionKey(tx.ID), []byte(tx.BlockID))
}

// TransactionExists reports whether a transaction with the given id is
// already confirmed.
func (ctx *DatabaseContext) TransactionExists(id string) (bool, error) {
	return ctx.db.Has(transactionKey(id))
}

// FetchTransactionBlockID returns the id of the block carrying the
// confirmed transaction, or an empty string when the transaction is not
// confirmed.
func (ctx *DatabaseContext) FetchTransactionBlockID(id string) (string, error) {
	blockID, err := ctx.db.Get(transactionKey(id))
	if err != nil {
		return "", err
	}
	return string(blockID), nil
}
