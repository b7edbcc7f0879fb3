package blockchain

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/forgenet/forged/chaincfg"
	"github.com/forgenet/forged/dbaccess"
	"github.com/forgenet/forged/wire"
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
)

var errTest = errors.New("test error")

// fakeTimeSource reports a fixed instant so slot arithmetic in tests is
// deterministic.
type fakeTimeSource struct {
	now time.Time
}

func (fts *fakeTimeSource) Now() time.Time {
	return fts.now
}

type fakeStore struct {
	existing map[string]bool
	lastIDs  []string
	loadErr  error
	existErr error
}

func (fs *fakeStore) BlockExists(id string) (bool, error) {
	if fs.existErr != nil {
		return false, fs.existErr
	}
	return fs.existing[id], nil
}

func (fs *fakeStore) LoadLastNBlockIDs(n int) ([]string, error) {
	if fs.loadErr != nil {
		return nil, fs.loadErr
	}
	if len(fs.lastIDs) > n {
		return fs.lastIDs[len(fs.lastIDs)-n:], nil
	}
	return fs.lastIDs, nil
}

type fakeAccounts struct {
	accounts map[string]*dbaccess.Account
	err      error
}

func (fa *fakeAccounts) GetByPublicKey(publicKey string) (*dbaccess.Account, error) {
	if fa.err != nil {
		return nil, fa.err
	}
	return fa.accounts[publicKey], nil
}

type forkCall struct {
	blockID string
	cause   ForkCause
}

type fakeDelegates struct {
	forks       []forkCall
	validateErr error
}

func (fd *fakeDelegates) ValidateBlockSlot(block *wire.Block) error {
	return fd.validateErr
}

func (fd *fakeDelegates) Fork(block *wire.Block, cause ForkCause) {
	fd.forks = append(fd.forks, forkCall{blockID: block.ID, cause: cause})
}

// fakeTransactions records the pipeline's calls in order so tests can
// assert the fork-cause-2 side-effect sequence.
type fakeTransactions struct {
	confirmedErr map[string]error
	verifyErr    error
	undoErr      error
	calls        []string
}

func (ft *fakeTransactions) CheckConfirmed(tx *wire.Transaction) error {
	ft.calls = append(ft.calls, "checkConfirmed:"+tx.ID)
	if ft.confirmedErr != nil {
		return ft.confirmedErr[tx.ID]
	}
	return nil
}

func (ft *fakeTransactions) Verify(tx *wire.Transaction, sender *dbaccess.Account) error {
	ft.calls = append(ft.calls, "verify:"+tx.ID)
	if sender == nil {
		return errors.Errorf("Invalid sender. Account not found: %s", tx.SenderPublicKey)
	}
	return ft.verifyErr
}

func (ft *fakeTransactions) UndoUnconfirmed(tx *wire.Transaction) error {
	ft.calls = append(ft.calls, "undoUnconfirmed:"+tx.ID)
	return ft.undoErr
}

func (ft *fakeTransactions) RemoveTransaction(id string) {
	ft.calls = append(ft.calls, "removeTransaction:"+id)
}

type fakeApplier struct {
	applied    []*wire.Block
	relayed    []*wire.Block
	applyErr   error
	savedFlags []bool
}

func (fa *fakeApplier) ApplyBlock(block *wire.Block, saveBlock bool) error {
	if fa.applyErr != nil {
		return fa.applyErr
	}
	fa.applied = append(fa.applied, block)
	fa.savedFlags = append(fa.savedFlags, saveBlock)
	return nil
}

func (fa *fakeApplier) BroadcastReducedBlock(block *wire.Block, broadcast bool) {
	fa.relayed = append(fa.relayed, block)
}

// testHarness bundles a chain wired to fakes, plus the forger keypair
// tests sign candidate blocks with.
type testHarness struct {
	chain        *Chain
	params       *chaincfg.Params
	timeSource   *fakeTimeSource
	store        *fakeStore
	accounts     *fakeAccounts
	delegates    *fakeDelegates
	transactions *fakeTransactions
	applier      *fakeApplier

	keyPair   *secp256k1.SchnorrKeyPair
	publicKey string
}

// newTestHarness builds a loaded chain on simnet params whose tip is
// the genesis block, with the wall clock pinned a few slots past it.
func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	params := &chaincfg.SimnetParams
	keyPair, publicKey := newTestKeyPair(t)

	genesis := &wire.Block{
		ID:                 "1465186858552853200",
		Height:             1,
		Timestamp:          0,
		PayloadHash:        emptyPayloadHash(),
		GeneratorPublicKey: publicKey,
	}

	harness := &testHarness{
		params: params,
		// Three slots past genesis.
		timeSource:   &fakeTimeSource{now: params.Epoch.Add(3 * params.SlotInterval)},
		store:        &fakeStore{existing: map[string]bool{}},
		accounts:     &fakeAccounts{accounts: map[string]*dbaccess.Account{}},
		delegates:    &fakeDelegates{},
		transactions: &fakeTransactions{},
		applier:      &fakeApplier{},
		keyPair:      keyPair,
		publicKey:    publicKey,
	}

	chain, err := New(&Config{
		Params:       params,
		TimeSource:   harness.timeSource,
		Store:        harness.store,
		Accounts:     harness.accounts,
		Delegates:    harness.delegates,
		Transactions: harness.transactions,
		Applier:      harness.applier,
	})
	if err != nil {
		t.Fatalf("newTestHarness: unable to build chain: %s", err)
	}
	chain.SetLastBlock(genesis)
	chain.SetLoaded(true)
	harness.chain = chain
	return harness
}

func newTestKeyPair(t *testing.T) (*secp256k1.SchnorrKeyPair, string) {
	t.Helper()
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("unable to generate keypair: %s", err)
	}
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		t.Fatalf("unable to derive public key: %s", err)
	}
	serialized, err := publicKey.Serialize()
	if err != nil {
		t.Fatalf("unable to serialize public key: %s", err)
	}
	return keyPair, hex.EncodeToString(serialized[:])
}

func emptyPayloadHash() string {
	block := &wire.Block{}
	digest, _, _, _, _ := block.PayloadDigest()
	return digest
}

// newSignedBlock forges a valid candidate extending the harness tip at
// the given slot, carrying the given transactions. The returned block
// passes full verification unless the caller breaks it afterwards.
func (h *testHarness) newSignedBlock(t *testing.T, slot int64, txs []*wire.Transaction) *wire.Block {
	t.Helper()

	lastBlock := h.chain.LastBlock()
	block := &wire.Block{
		Timestamp:          slot * h.params.SlotSeconds(),
		Height:             lastBlock.Height + 1,
		PreviousBlock:      lastBlock.ID,
		GeneratorPublicKey: h.publicKey,
		Transactions:       txs,
	}
	block.Reward = CalcBlockReward(block.Height, h.params)

	digest, payloadLength, totalAmount, totalFee, err := block.PayloadDigest()
	if err != nil {
		t.Fatalf("newSignedBlock: unable to compute payload digest: %s", err)
	}
	block.PayloadHash = digest
	block.PayloadLength = payloadLength
	block.TotalAmount = totalAmount
	block.TotalFee = totalFee
	block.NumberOfTransactions = uint32(len(txs))

	if err := block.Sign(h.keyPair); err != nil {
		t.Fatalf("newSignedBlock: unable to sign block: %s", err)
	}
	id, err := block.ComputeID()
	if err != nil {
		t.Fatalf("newSignedBlock: unable to compute block id: %s", err)
	}
	block.ID = id
	return block
}

// newSignedTx builds a signed transaction from the harness keypair.
func (h *testHarness) newSignedTx(t *testing.T, amount, fee uint64, recipient string) *wire.Transaction {
	t.Helper()
	tx := &wire.Transaction{
		Timestamp:       1,
		SenderPublicKey: h.publicKey,
		RecipientID:     recipient,
		Amount:          amount,
		Fee:             fee,
	}
	if err := tx.Sign(h.keyPair); err != nil {
		t.Fatalf("newSignedTx: unable to sign transaction: %s", err)
	}
	id, err := tx.ComputeID()
	if err != nil {
		t.Fatalf("newSignedTx: unable to compute transaction id: %s", err)
	}
	tx.ID = id
	return tx
}
