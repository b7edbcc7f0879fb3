package delegates

import (
	"crypto/sha256"
	"strconv"
	"time"

	"github.com/forgenet/forged/blockchain"
	"github.com/forgenet/forged/chaincfg"
	"github.com/forgenet/forged/dbaccess"
	"github.com/forgenet/forged/slots"
	"github.com/forgenet/forged/wire"
	"github.com/pkg/errors"
)

// Config holds everything a delegate Manager is built from.
type Config struct {
	Params          *chaincfg.Params
	DatabaseContext *dbaccess.DatabaseContext
}

// Manager resolves slot ownership for the active delegate set and
// journals fork events reported by the processing pipeline.
type Manager struct {
	params          *chaincfg.Params
	databaseContext *dbaccess.DatabaseContext
}

// New constructs a delegate Manager.
func New(config *Config) *Manager {
	return &Manager{
		params:          config.Params,
		databaseContext: config.DatabaseContext,
	}
}

// activeDelegates returns the delegate public keys eligible to forge in
// the given round, in their shuffled forging order. The shuffle is
// seeded by the round number alone, so every node derives the same
// order.
func (m *Manager) activeDelegates(round uint64) ([]string, error) {
	registered, err := m.databaseContext.FetchDelegatePublicKeys()
	if err != nil {
		return nil, err
	}
	if len(registered) == 0 {
		return nil, errors.New("no registered delegates")
	}
	if len(registered) > chaincfg.ActiveDelegates {
		registered = registered[:chaincfg.ActiveDelegates]
	}
	return shuffleDelegates(registered, round), nil
}

// shuffleDelegates reorders the delegate list with a round-seeded
// digest walk. Every byte of the running digest drives one swap; the
// digest is rehashed when exhausted.
func shuffleDelegates(delegates []string, round uint64) []string {
	shuffled := append([]string(nil), delegates...)
	seed := sha256.Sum256([]byte(strconv.FormatUint(round, 10)))
	for i := range shuffled {
		j := int(seed[i%len(seed)]) % len(shuffled)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		if i%len(seed) == len(seed)-1 {
			seed = sha256.Sum256(seed[:])
		}
	}
	return shuffled
}

// ForgerForSlot returns the public key of the delegate assigned to the
// given slot within the given round.
func (m *Manager) ForgerForSlot(slot int64, round uint64) (string, error) {
	delegates, err := m.activeDelegates(round)
	if err != nil {
		return "", err
	}
	return delegates[int(slot%int64(len(delegates)))], nil
}

// ValidateBlockSlot errors when the block's slot is not assigned to its
// generator public key.
func (m *Manager) ValidateBlockSlot(block *wire.Block) error {
	slot := slots.SlotNumber(m.params, block.Timestamp)
	round := slots.RoundNumber(block.Height)
	expected, err := m.ForgerForSlot(slot, round)
	if err != nil {
		return err
	}
	if expected != block.GeneratorPublicKey {
		return errors.Errorf("Failed to verify slot: %d", slot)
	}
	return nil
}

// Fork journals a classified consensus violation for delegate
// accounting. Journal failures are logged, not propagated: fork
// reporting is a side effect of verification and must never abort it.
func (m *Manager) Fork(block *wire.Block, cause blockchain.ForkCause) {
	log.Warnf("Fork cause %d observed on block %s at height %d, previous block %s",
		cause, block.ID, block.Height, block.PreviousBlock)
	err := m.databaseContext.StoreForkEvent(&dbaccess.ForkEvent{
		BlockID:            block.ID,
		Height:             block.Height,
		PreviousBlock:      block.PreviousBlock,
		GeneratorPublicKey: block.GeneratorPublicKey,
		Cause:              int(cause),
		Timestamp:          time.Now().Unix(),
	})
	if err != nil {
		log.Errorf("Unable to journal fork event for block %s: %s", block.ID, err)
	}
}
