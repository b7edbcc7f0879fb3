package blockchain

import (
	"path/filepath"
	"testing"

	"github.com/forgenet/forged/dbaccess"
	"github.com/forgenet/forged/mempool"
	"github.com/forgenet/forged/wire"
)

// TestChainApplierApplyBlock runs an accepted block through the real
// chain-application stage against a real store and pool.
func TestChainApplierApplyBlock(t *testing.T) {
	harness := newTestHarness(t)

	databaseContext, err := dbaccess.New(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("unable to open test database: %s", err)
	}
	defer databaseContext.Close()
	txPool := mempool.New(&mempool.Config{DatabaseContext: databaseContext})
	applier := NewApplier(&ApplierConfig{
		DatabaseContext: databaseContext,
		Transactions:    txPool,
	})
	applier.Bind(harness.chain)

	senderAddress, err := wire.AddressFromPublicKey(harness.publicKey)
	if err != nil {
		t.Fatalf("unable to derive sender address: %s", err)
	}
	err = databaseContext.StoreAccount(&dbaccess.Account{
		Address:   senderAddress,
		PublicKey: harness.publicKey,
		Balance:   1000,
	})
	if err != nil {
		t.Fatalf("unable to store sender account: %s", err)
	}

	tx := harness.newSignedTx(t, 100, 10, "12345F")
	if err := txPool.AddTransaction(tx); err != nil {
		t.Fatalf("unable to pool transaction: %s", err)
	}
	block := harness.newSignedBlock(t, 1, []*wire.Transaction{tx})
	tx.BlockID = block.ID

	if err := applier.ApplyBlock(block, true); err != nil {
		t.Fatalf("TestChainApplierApplyBlock: unexpected error: %s", err)
	}

	// The block and its transaction are persisted.
	exists, err := databaseContext.BlockExists(block.ID)
	if err != nil || !exists {
		t.Fatalf("TestChainApplierApplyBlock: block not persisted (exists=%t, err=%v)",
			exists, err)
	}
	confirmed, err := databaseContext.TransactionExists(tx.ID)
	if err != nil || !confirmed {
		t.Fatalf("TestChainApplierApplyBlock: transaction not indexed (exists=%t, err=%v)",
			confirmed, err)
	}

	// Balances moved: the sender paid amount+fee, the recipient was
	// materialized, and the forger collected the fee and reward. The
	// forger is the sender here, so the payout lands on the same
	// account.
	sender, err := databaseContext.FetchAccountByAddress(senderAddress)
	if err != nil {
		t.Fatalf("unable to fetch sender: %s", err)
	}
	wantBalance := 1000 - 110 + block.TotalFee + block.Reward
	if sender.Balance != wantBalance {
		t.Fatalf("TestChainApplierApplyBlock: sender balance %d, want %d",
			sender.Balance, wantBalance)
	}
	recipient, err := databaseContext.FetchAccountByAddress("12345F")
	if err != nil {
		t.Fatalf("unable to fetch recipient: %s", err)
	}
	if recipient == nil || recipient.Balance != 100 {
		t.Fatalf("TestChainApplierApplyBlock: recipient not credited: %+v", recipient)
	}

	// The pool dropped the confirmed transaction, the tip advanced and
	// the recent-id window saw the block.
	if txPool.HaveTransaction(tx.ID) {
		t.Fatalf("TestChainApplierApplyBlock: confirmed transaction still pooled")
	}
	if harness.chain.LastBlock().ID != block.ID {
		t.Fatalf("TestChainApplierApplyBlock: tip not advanced")
	}
	if !harness.chain.window.contains(block.ID) {
		t.Fatalf("TestChainApplierApplyBlock: window missed the accepted block")
	}
}
