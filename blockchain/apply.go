package blockchain

import (
	"github.com/forgenet/forged/dbaccess"
	"github.com/forgenet/forged/wire"
	"github.com/pkg/errors"
)

// Broadcaster relays a reduced block to peers. The daemon provides a
// transport-backed implementation; tests and transportless nodes use
// none.
type Broadcaster interface {
	RelayBlock(block *wire.Block)
}

// ApplierConfig is the set of collaborators the default
// chain-application stage is built from.
type ApplierConfig struct {
	DatabaseContext *dbaccess.DatabaseContext
	Transactions    TransactionBackend
	Broadcaster     Broadcaster
}

// ChainApplier is the default chain-application stage: it applies an
// accepted block's balance mutations, persists the block, trims the
// unconfirmed pool and advances the chain tip.
type ChainApplier struct {
	databaseContext *dbaccess.DatabaseContext
	transactions    TransactionBackend
	broadcaster     Broadcaster
	chain           *Chain
}

// NewApplier constructs a ChainApplier. Bind must be called with the
// owning chain before the first block is applied.
func NewApplier(config *ApplierConfig) *ChainApplier {
	return &ChainApplier{
		databaseContext: config.DatabaseContext,
		transactions:    config.Transactions,
		broadcaster:     config.Broadcaster,
	}
}

// Bind attaches the owning chain so the applier can advance its tip
// and feed the recent-id window.
func (a *ChainApplier) Bind(chain *Chain) {
	a.chain = chain
}

// ApplyBlock applies the block's mutations to the account store,
// persists the block when saveBlock is set, removes its transactions
// from the unconfirmed pool, and advances the chain tip. The block has
// already passed full verification when it reaches this stage.
func (a *ChainApplier) ApplyBlock(block *wire.Block, saveBlock bool) error {
	if a.chain == nil {
		return errors.New("applier is not bound to a chain")
	}

	for _, tx := range block.Transactions {
		if err := a.applyTransaction(tx); err != nil {
			return err
		}
	}

	if err := a.creditGenerator(block); err != nil {
		return err
	}

	if saveBlock {
		if err := a.databaseContext.StoreBlock(block); err != nil {
			return err
		}
	}

	for _, tx := range block.Transactions {
		a.transactions.RemoveTransaction(tx.ID)
	}

	a.chain.SetLastBlock(block)
	a.chain.HandleNewBlock(block)
	log.Infof("Applied block %s at height %d with %d transactions",
		block.ID, block.Height, len(block.Transactions))
	return nil
}

// applyTransaction debits the sender and credits the recipient,
// materializing the recipient account when it does not exist yet.
func (a *ChainApplier) applyTransaction(tx *wire.Transaction) error {
	senderAddress, err := wire.AddressFromPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	sender, err := a.databaseContext.FetchAccountByAddress(senderAddress)
	if err != nil {
		return err
	}
	if sender == nil {
		return errors.Errorf("sender account %s not found for transaction %s",
			senderAddress, tx.ID)
	}
	total := tx.Amount + tx.Fee
	if sender.Balance < total {
		return errors.Errorf("account %s balance %d is below spend %d for transaction %s",
			senderAddress, sender.Balance, total, tx.ID)
	}
	sender.Balance -= total
	if sender.PublicKey == "" {
		sender.PublicKey = tx.SenderPublicKey
	}
	if err := a.databaseContext.StoreAccount(sender); err != nil {
		return err
	}

	if tx.RecipientID == "" || tx.Amount == 0 {
		return nil
	}
	recipient, err := a.databaseContext.FetchAccountByAddress(tx.RecipientID)
	if err != nil {
		return err
	}
	if recipient == nil {
		recipient = &dbaccess.Account{Address: tx.RecipientID}
	}
	recipient.Balance += tx.Amount
	return a.databaseContext.StoreAccount(recipient)
}

// creditGenerator pays the block's fees and reward to its forger.
func (a *ChainApplier) creditGenerator(block *wire.Block) error {
	payout := block.TotalFee + block.Reward
	if payout == 0 {
		return nil
	}
	generatorAddress, err := wire.AddressFromPublicKey(block.GeneratorPublicKey)
	if err != nil {
		return err
	}
	generator, err := a.databaseContext.FetchAccountByAddress(generatorAddress)
	if err != nil {
		return err
	}
	if generator == nil {
		generator = &dbaccess.Account{
			Address:   generatorAddress,
			PublicKey: block.GeneratorPublicKey,
		}
	}
	generator.Balance += payout
	return a.databaseContext.StoreAccount(generator)
}

// BroadcastReducedBlock relays the compact form of a freshly accepted
// block. Without a transport attached the relay is a no-op.
func (a *ChainApplier) BroadcastReducedBlock(block *wire.Block, broadcast bool) {
	if !broadcast || a.broadcaster == nil {
		return
	}
	a.broadcaster.RelayBlock(block)
}
