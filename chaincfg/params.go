package chaincfg

import (
	"time"
)

// These constants define the protocol-level limits shared by every
// network. Changing any of them forks the network.
const (
	// SlotIntervalSeconds is the length of a single forging slot.
	SlotIntervalSeconds = 10

	// ActiveDelegates is the number of forging delegates elected per
	// round. Every round assigns each slot to exactly one of them.
	ActiveDelegates = 101

	// MaxTxsPerBlock is the maximum number of transactions a single
	// block may carry.
	MaxTxsPerBlock = 25

	// MaxPayloadLength is the maximum serialized size of a block's
	// transaction payload in bytes.
	MaxPayloadLength = 1024 * 1024
)

// Params defines a forgenet network by its parameters. These parameters
// may be used by applications to differentiate networks as well as
// addresses and keys for one network from those intended for use on
// another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Epoch is the instant slot zero begins. Block timestamps are
	// expressed in seconds since this instant.
	Epoch time.Time

	// SlotInterval is the length of a forging slot.
	SlotInterval time.Duration

	// BlockSlotWindow is the number of recent slots within which a
	// block is still acceptable on receipt. It is also the size of the
	// recent block id window kept for replay rejection.
	BlockSlotWindow int

	// RewardOffset is the height at which the block reward schedule
	// activates. Blocks below it carry no reward.
	RewardOffset uint64

	// RewardDistance is the number of blocks each reward milestone
	// spans before the schedule advances to the next milestone.
	RewardDistance uint64

	// RewardMilestones holds the reward amount for each milestone. The
	// last milestone applies to all heights beyond the table.
	RewardMilestones []uint64

	// RewardExceptions lists block ids exempt from the reward check.
	// A listed block is accepted with whatever reward it declares.
	RewardExceptions map[string]struct{}

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *GenesisParams
}

// GenesisParams carries the identifying fields of a network's genesis
// block. The full genesis block is materialized by the daemon on first
// start.
type GenesisParams struct {
	ID                 string
	PayloadHash        string
	GeneratorPublicKey string
	BlockSignature     string
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:            "mainnet",
	Epoch:           time.Date(2016, time.May, 24, 17, 0, 0, 0, time.UTC),
	SlotInterval:    SlotIntervalSeconds * time.Second,
	BlockSlotWindow: 5,

	RewardOffset:   1451520,
	RewardDistance: 3000000,
	RewardMilestones: []uint64{
		500000000, // initial
		400000000,
		300000000,
		200000000,
		100000000, // final
	},
	RewardExceptions: map[string]struct{}{
		// Early mainnet blocks forged with a pre-schedule reward field.
		"11850828211666208861": {},
		"16125264507036136003": {},
	},
	GenesisBlock: &mainnetGenesis,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:            "testnet",
	Epoch:           time.Date(2016, time.May, 24, 17, 0, 0, 0, time.UTC),
	SlotInterval:    SlotIntervalSeconds * time.Second,
	BlockSlotWindow: 5,

	RewardOffset:   1451520,
	RewardDistance: 3000000,
	RewardMilestones: []uint64{
		500000000,
		400000000,
		300000000,
		200000000,
		100000000,
	},
	RewardExceptions: map[string]struct{}{},
	GenesisBlock:     &testnetGenesis,
}

// SimnetParams defines the network parameters for the simulation test
// network. This network is only intended for private use within a group
// of individuals doing simulation testing, so the reward schedule kicks
// in almost immediately.
var SimnetParams = Params{
	Name:            "simnet",
	Epoch:           time.Date(2016, time.May, 24, 17, 0, 0, 0, time.UTC),
	SlotInterval:    SlotIntervalSeconds * time.Second,
	BlockSlotWindow: 5,

	RewardOffset:   2,
	RewardDistance: 10,
	RewardMilestones: []uint64{
		500000000,
		400000000,
		300000000,
		200000000,
		100000000,
	},
	RewardExceptions: map[string]struct{}{},
	GenesisBlock:     &simnetGenesis,
}

// SlotSeconds returns the network's slot interval in whole seconds.
func (p *Params) SlotSeconds() int64 {
	return int64(p.SlotInterval / time.Second)
}
