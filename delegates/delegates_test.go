package delegates

import (
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"github.com/forgenet/forged/blockchain"
	"github.com/forgenet/forged/chaincfg"
	"github.com/forgenet/forged/dbaccess"
	"github.com/forgenet/forged/slots"
	"github.com/forgenet/forged/wire"
)

func newTestManager(t *testing.T, numDelegates int) (*Manager, []string) {
	t.Helper()
	databaseContext, err := dbaccess.New(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("unable to open test database: %s", err)
	}
	t.Cleanup(func() {
		databaseContext.Close()
	})

	publicKeys := make([]string, 0, numDelegates)
	for i := 0; i < numDelegates; i++ {
		publicKey := "delegate-" + strconv.Itoa(i)
		account := &dbaccess.Account{
			Address:    strconv.Itoa(i) + wire.AddressSuffix,
			PublicKey:  publicKey,
			IsDelegate: true,
		}
		if err := databaseContext.StoreAccount(account); err != nil {
			t.Fatalf("unable to store delegate account: %s", err)
		}
		publicKeys = append(publicKeys, publicKey)
	}

	manager := New(&Config{
		Params:          &chaincfg.SimnetParams,
		DatabaseContext: databaseContext,
	})
	return manager, publicKeys
}

func TestShuffleIsDeterministic(t *testing.T) {
	delegates := []string{"aa", "bb", "cc", "dd", "ee"}

	first := shuffleDelegates(delegates, 7)
	second := shuffleDelegates(delegates, 7)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("TestShuffleIsDeterministic: same round shuffled differently: %v vs %v",
			first, second)
	}

	// The input list must not be reordered in place.
	if !reflect.DeepEqual(delegates, []string{"aa", "bb", "cc", "dd", "ee"}) {
		t.Fatalf("TestShuffleIsDeterministic: input mutated: %v", delegates)
	}

	// A shuffle is a permutation of its input.
	seen := make(map[string]bool)
	for _, delegate := range first {
		seen[delegate] = true
	}
	if len(seen) != len(delegates) {
		t.Fatalf("TestShuffleIsDeterministic: shuffle is not a permutation: %v", first)
	}
}

func TestForgerForSlot(t *testing.T) {
	manager, _ := newTestManager(t, 11)

	forger, err := manager.ForgerForSlot(13, 1)
	if err != nil {
		t.Fatalf("TestForgerForSlot: unexpected error: %s", err)
	}
	again, err := manager.ForgerForSlot(13, 1)
	if err != nil {
		t.Fatalf("TestForgerForSlot: unexpected error: %s", err)
	}
	if forger != again {
		t.Fatalf("TestForgerForSlot: assignment is not deterministic: %s vs %s",
			forger, again)
	}
}

func TestValidateBlockSlot(t *testing.T) {
	manager, publicKeys := newTestManager(t, 11)
	params := &chaincfg.SimnetParams

	slot := int64(13)
	block := &wire.Block{
		Height:    2,
		Timestamp: slots.SlotTime(params, slot),
	}
	expected, err := manager.ForgerForSlot(slot, slots.RoundNumber(block.Height))
	if err != nil {
		t.Fatalf("TestValidateBlockSlot: unexpected error: %s", err)
	}

	block.GeneratorPublicKey = expected
	if err := manager.ValidateBlockSlot(block); err != nil {
		t.Fatalf("TestValidateBlockSlot: assigned forger rejected: %s", err)
	}

	// Any other delegate is the wrong forger for the slot.
	for _, publicKey := range publicKeys {
		if publicKey == expected {
			continue
		}
		block.GeneratorPublicKey = publicKey
		err := manager.ValidateBlockSlot(block)
		if err == nil {
			t.Fatalf("TestValidateBlockSlot: wrong forger %s accepted", publicKey)
		}
		if err.Error() != "Failed to verify slot: 13" {
			t.Fatalf("TestValidateBlockSlot: unexpected error text: %s", err)
		}
		break
	}
}

func TestValidateBlockSlotNoDelegates(t *testing.T) {
	manager, _ := newTestManager(t, 0)
	block := &wire.Block{Height: 2, Timestamp: 10}
	if err := manager.ValidateBlockSlot(block); err == nil {
		t.Fatalf("TestValidateBlockSlotNoDelegates: empty registry accepted")
	}
}

func TestForkJournals(t *testing.T) {
	manager, publicKeys := newTestManager(t, 3)
	block := &wire.Block{
		ID:                 "4001",
		Height:             9,
		PreviousBlock:      "4000",
		GeneratorPublicKey: publicKeys[0],
	}
	// Fork reporting must never panic or propagate journal errors.
	manager.Fork(block, blockchain.ForkCausePreviousBlock)
	manager.Fork(block, blockchain.ForkCauseWrongSlot)
}
