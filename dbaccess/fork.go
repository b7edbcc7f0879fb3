package dbaccess

import (
	"encoding/binary"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

var forkBucket = []byte("fork/")

// ForkEvent is a classified consensus violation recorded for delegate
// accounting.
type ForkEvent struct {
	BlockID            string `json:"blockId"`
	Height             uint64 `json:"height"`
	PreviousBlock      string `json:"previousBlock"`
	GeneratorPublicKey string `json:"generatorPublicKey"`
	Cause              int    `json:"cause"`
	Timestamp          int64  `json:"timestamp"`
}

func forkEventKey(event *ForkEvent) []byte {
	key := make([]byte, 0, len(forkBucket)+8+1+len(event.BlockID)+2)
	key = append(key, forkBucket...)
	var height [8]byte
	binary.BigEndian.PutUint64(height[:], event.Height)
	key = append(key, height[:]...)
	key = append(key, '/')
	key = append(key, strconv.Itoa(event.Cause)...)
	key = append(key, '/')
	key = append(key, event.BlockID...)
	return key
}

// StoreForkEvent journals a fork event. Recording the same violation
// twice overwrites the earlier entry.
func (ctx *DatabaseContext) StoreForkEvent(event *ForkEvent) error {
	serialized, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "cannot serialize fork event")
	}
	return ctx.db.Put(forkEventKey(event), serialized)
}
