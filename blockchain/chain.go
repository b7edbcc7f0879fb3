package blockchain

import (
	"sync"

	"github.com/forgenet/forged/chaincfg"
	"github.com/forgenet/forged/dbaccess"
	"github.com/forgenet/forged/slots"
	"github.com/forgenet/forged/wire"
	"github.com/pkg/errors"
)

// ForkCause classifies a consensus violation reported to the delegate
// subsystem for accounting.
type ForkCause int

// The three classified fork causes.
const (
	// ForkCausePreviousBlock is raised when a block's previous-block id
	// does not match the chain tip.
	ForkCausePreviousBlock ForkCause = 1

	// ForkCauseTxDuplicate is raised when a block carries a transaction
	// that is already confirmed.
	ForkCauseTxDuplicate ForkCause = 2

	// ForkCauseWrongSlot is raised when a block's slot does not belong
	// to its generator.
	ForkCauseWrongSlot ForkCause = 3
)

// BlockStore is the persistent-store surface the chain consumes.
type BlockStore interface {
	// BlockExists reports whether a block with the given id has been
	// persisted.
	BlockExists(id string) (bool, error)

	// LoadLastNBlockIDs returns the ids of the n most recently
	// persisted blocks, oldest first.
	LoadLastNBlockIDs(n int) ([]string, error)
}

// AccountStore resolves accounts by public key. A nil account with a
// nil error means the account is not yet materialized (a cold wallet).
type AccountStore interface {
	GetByPublicKey(publicKey string) (*dbaccess.Account, error)
}

// DelegateBackend is the delegate-subsystem surface the chain consumes:
// slot ownership validation and fork-cause accounting.
type DelegateBackend interface {
	// ValidateBlockSlot errors when the block's slot does not belong to
	// its generator public key.
	ValidateBlockSlot(block *wire.Block) error

	// Fork records a classified consensus violation.
	Fork(block *wire.Block, cause ForkCause)
}

// TransactionBackend is the transaction-subsystem surface the chain
// consumes while checking a block's transactions.
type TransactionBackend interface {
	// CheckConfirmed errors when the transaction already exists in the
	// confirmed store.
	CheckConfirmed(tx *wire.Transaction) error

	// Verify validates the transaction against its sender account.
	// sender is nil for cold wallets.
	Verify(tx *wire.Transaction, sender *dbaccess.Account) error

	// UndoUnconfirmed reverts the transaction's unconfirmed effects.
	UndoUnconfirmed(tx *wire.Transaction) error

	// RemoveTransaction drops the transaction from the unconfirmed
	// pool.
	RemoveTransaction(id string)
}

// Applier is the chain-application stage. It persists an accepted
// block's mutations and advances the chain tip.
type Applier interface {
	// ApplyBlock applies the block's state mutations, persisting the
	// block itself when saveBlock is set.
	ApplyBlock(block *wire.Block, saveBlock bool) error

	// BroadcastReducedBlock relays the compact form of a freshly
	// accepted block to peers.
	BroadcastReducedBlock(block *wire.Block, broadcast bool)
}

// Config is the set of collaborators and parameters a Chain is built
// from. All fields are required except TimeSource, which defaults to
// the wall clock.
type Config struct {
	Params       *chaincfg.Params
	TimeSource   slots.TimeSource
	Store        BlockStore
	Accounts     AccountStore
	Delegates    DelegateBackend
	Transactions TransactionBackend
	Applier      Applier
}

// Chain is the block verification and processing pipeline. It decides
// whether candidate blocks are eligible to extend the local chain and
// hands accepted blocks to the chain-application stage.
type Chain struct {
	params       *chaincfg.Params
	timeSource   slots.TimeSource
	store        BlockStore
	accounts     AccountStore
	delegates    DelegateBackend
	transactions TransactionBackend
	applier      Applier

	window *recentIDWindow

	stateLock  sync.RWMutex
	lastBlock  *wire.Block
	loaded     bool
	isCleaning bool
}

// New constructs a Chain from the given configuration.
func New(config *Config) (*Chain, error) {
	if config.Params == nil {
		return nil, errors.New("blockchain.New: params are required")
	}
	if config.Store == nil || config.Accounts == nil || config.Delegates == nil ||
		config.Transactions == nil || config.Applier == nil {
		return nil, errors.New("blockchain.New: all collaborators are required")
	}
	timeSource := config.TimeSource
	if timeSource == nil {
		timeSource = slots.NewTimeSource()
	}
	return &Chain{
		params:       config.Params,
		timeSource:   timeSource,
		store:        config.Store,
		accounts:     config.Accounts,
		delegates:    config.Delegates,
		transactions: config.Transactions,
		applier:      config.Applier,
		window:       newRecentIDWindow(config.Params.BlockSlotWindow),
	}, nil
}

// LastBlock returns a snapshot of the current chain tip.
func (c *Chain) LastBlock() *wire.Block {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()
	return c.lastBlock
}

// SetLastBlock advances the chain tip snapshot. Called by the
// chain-application stage once a block's mutations are persisted.
func (c *Chain) SetLastBlock(block *wire.Block) {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()
	c.lastBlock = block
}

// SetLoaded flips the loaded gate. Until the gate is open, ProcessBlock
// refuses work.
func (c *Chain) SetLoaded(loaded bool) {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()
	c.loaded = loaded
}

// IsLoaded reports whether the chain has finished loading.
func (c *Chain) IsLoaded() bool {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()
	return c.loaded
}

// BeginCleanup raises the monotonic shutdown flag. In-flight
// invocations finish their current stage; new invocations are refused.
func (c *Chain) BeginCleanup() {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()
	c.isCleaning = true
}

// IsCleaning reports whether the node is shutting down.
func (c *Chain) IsCleaning() bool {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()
	return c.isCleaning
}

// HandleBlockchainReady populates the recent-id window from storage.
// Failures are logged and do not abort startup; the window simply
// starts empty and refills as blocks arrive.
func (c *Chain) HandleBlockchainReady() {
	ids, err := c.store.LoadLastNBlockIDs(c.params.BlockSlotWindow)
	if err != nil {
		log.Errorf("Unable to load last block ids: %s", err)
		return
	}
	c.window.reset(ids)
	log.Debugf("Recent block id window primed with %d ids", len(ids))
}

// HandleNewBlock records a freshly accepted block in the recent-id
// window.
func (c *Chain) HandleNewBlock(block *wire.Block) {
	c.window.push(block.ID)
}
