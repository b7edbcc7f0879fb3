package mempool

import (
	"sync"

	"github.com/forgenet/forged/dbaccess"
	"github.com/forgenet/forged/wire"
	"github.com/pkg/errors"
)

// Config holds everything a transaction pool is built from.
type Config struct {
	DatabaseContext *dbaccess.DatabaseContext
}

// poolEntry tracks an unconfirmed transaction and whether its balance
// effect has already been undone.
type poolEntry struct {
	tx     *wire.Transaction
	undone bool
}

// TxPool is the unconfirmed transaction pool. It also implements the
// transaction backend the processing pipeline consumes: the
// confirmed-duplicate check, per-transaction verification, and the
// rollback hooks the fork-cause-2 path drives.
type TxPool struct {
	mtx             sync.RWMutex
	databaseContext *dbaccess.DatabaseContext
	pool            map[string]*poolEntry

	// unconfirmedSpend tracks, per sender address, the currency locked
	// by pooled transactions.
	unconfirmedSpend map[string]uint64
}

// New constructs a transaction pool.
func New(config *Config) *TxPool {
	return &TxPool{
		databaseContext:  config.DatabaseContext,
		pool:             make(map[string]*poolEntry),
		unconfirmedSpend: make(map[string]uint64),
	}
}

// AddTransaction admits a transaction to the unconfirmed pool,
// recording its spend against the sender.
func (mp *TxPool) AddTransaction(tx *wire.Transaction) error {
	if tx.ID == "" {
		id, err := tx.ComputeID()
		if err != nil {
			return err
		}
		tx.ID = id
	}
	senderAddress, err := wire.AddressFromPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}

	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	if _, exists := mp.pool[tx.ID]; exists {
		return errors.Errorf("transaction %s is already in the pool", tx.ID)
	}
	mp.pool[tx.ID] = &poolEntry{tx: tx}
	mp.unconfirmedSpend[senderAddress] += tx.Amount + tx.Fee
	return nil
}

// HaveTransaction reports whether the pool holds the transaction.
func (mp *TxPool) HaveTransaction(id string) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	_, exists := mp.pool[id]
	return exists
}

// Count returns the number of pooled transactions.
func (mp *TxPool) Count() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return len(mp.pool)
}

// UnconfirmedSpend returns the currency locked by pooled transactions
// for the given sender address.
func (mp *TxPool) UnconfirmedSpend(address string) uint64 {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return mp.unconfirmedSpend[address]
}

// releaseSpend unwinds the sender spend recorded for entry. Caller must
// hold the pool lock.
func (mp *TxPool) releaseSpend(entry *poolEntry) {
	if entry.undone {
		return
	}
	entry.undone = true
	senderAddress, err := wire.AddressFromPublicKey(entry.tx.SenderPublicKey)
	if err != nil {
		log.Errorf("Unable to derive sender address for pooled transaction %s: %s",
			entry.tx.ID, err)
		return
	}
	locked := mp.unconfirmedSpend[senderAddress]
	spend := entry.tx.Amount + entry.tx.Fee
	if spend >= locked {
		delete(mp.unconfirmedSpend, senderAddress)
	} else {
		mp.unconfirmedSpend[senderAddress] = locked - spend
	}
}

// UndoUnconfirmed reverts the transaction's unconfirmed balance effect
// while leaving it in the pool. Unknown transactions are a no-op: the
// pipeline undoes transactions it may never have pooled.
func (mp *TxPool) UndoUnconfirmed(tx *wire.Transaction) error {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	if entry, exists := mp.pool[tx.ID]; exists {
		mp.releaseSpend(entry)
	}
	return nil
}

// RemoveTransaction drops the transaction from the pool, releasing its
// spend unless it was already undone.
func (mp *TxPool) RemoveTransaction(id string) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	entry, exists := mp.pool[id]
	if !exists {
		return
	}
	mp.releaseSpend(entry)
	delete(mp.pool, id)
}

// CheckConfirmed errors when the transaction already exists in the
// confirmed store.
func (mp *TxPool) CheckConfirmed(tx *wire.Transaction) error {
	exists, err := mp.databaseContext.TransactionExists(tx.ID)
	if err != nil {
		return err
	}
	if exists {
		return errors.Errorf("Transaction is already confirmed: %s", tx.ID)
	}
	return nil
}

// Verify validates a transaction against its sender account: the
// sender must be materialized, the signature must check out, the fee
// must be positive and the balance must cover the spend. sender is nil
// for cold wallets, which no current transaction type admits.
func (mp *TxPool) Verify(tx *wire.Transaction, sender *dbaccess.Account) error {
	if sender == nil {
		return errors.Errorf("Invalid sender. Account not found: %s", tx.SenderPublicKey)
	}
	valid, err := tx.VerifySignature()
	if err != nil {
		return err
	}
	if !valid {
		return errors.Errorf("Failed to verify transaction signature: %s", tx.ID)
	}
	if tx.Fee == 0 {
		return errors.Errorf("Invalid transaction fee: %s", tx.ID)
	}
	spend := tx.Amount + tx.Fee
	if sender.Balance < spend {
		return errors.Errorf("Account does not have enough currency: %s balance: %d",
			sender.Address, sender.Balance)
	}
	return nil
}
