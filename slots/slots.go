package slots

import (
	"time"

	"github.com/forgenet/forged/chaincfg"
)

// EpochTime converts a wall-clock instant to seconds since the
// network's slot epoch.
func EpochTime(params *chaincfg.Params, t time.Time) int64 {
	return t.Unix() - params.Epoch.Unix()
}

// SlotNumber returns the slot a block timestamp falls into. Timestamps
// are expressed in seconds since the network epoch, so every interval
// of SlotInterval seconds maps to exactly one slot.
func SlotNumber(params *chaincfg.Params, timestamp int64) int64 {
	if timestamp < 0 {
		return -1
	}
	return timestamp / params.SlotSeconds()
}

// SlotTime returns the epoch-relative timestamp at which the given slot
// begins.
func SlotTime(params *chaincfg.Params, slot int64) int64 {
	return slot * params.SlotSeconds()
}

// CurrentSlot returns the slot of the present wall-clock time as
// reported by the given time source.
func CurrentSlot(params *chaincfg.Params, timeSource TimeSource) int64 {
	return SlotNumber(params, EpochTime(params, timeSource.Now()))
}

// RoundNumber returns the forging round a block height belongs to.
// Rounds are 1-based: heights 1..ActiveDelegates form round 1.
func RoundNumber(height uint64) uint64 {
	if height == 0 {
		return 0
	}
	return (height-1)/chaincfg.ActiveDelegates + 1
}
