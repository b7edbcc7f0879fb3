package dbaccess

import (
	"encoding/binary"
	"encoding/json"

	"github.com/forgenet/forged/wire"
	"github.com/pkg/errors"
)

var (
	blockBucket       = []byte("block/")
	blockHeightBucket = []byte("block-height/")
	tipKey            = []byte("tip")
)

func blockKey(id string) []byte {
	return append(blockBucket[:len(blockBucket):len(blockBucket)], id...)
}

func blockHeightKey(height uint64) []byte {
	key := make([]byte, len(blockHeightBucket)+8)
	copy(key, blockHeightBucket)
	binary.BigEndian.PutUint64(key[len(blockHeightBucket):], height)
	return key
}

// StoreBlock persists a block along with its height index, the
// confirmed-transaction index of every transaction it carries, and the
// chain tip marker.
func (ctx *DatabaseContext) StoreBlock(block *wire.Block) error {
	if block.ID == "" {
		return errors.New("cannot store a block without an id")
	}
	serialized, err := json.Marshal(block)
	if err != nil {
		return errors.Wrap(err, "cannot serialize block")
	}
	if err := ctx.db.Put(blockKey(block.ID), serialized); err != nil {
		return err
	}
	if err := ctx.db.Put(blockHeightKey(block.Height), []byte(block.ID)); err != nil {
		return err
	}
	for _, tx := range block.Transactions {
		if err := ctx.storeTransactionIndex(tx); err != nil {
			return err
		}
	}

	var tip [8]byte
	binary.BigEndian.PutUint64(tip[:], block.Height)
	return ctx.db.Put(tipKey, tip[:])
}

// BlockExists reports whether a block with the given id has been
// persisted.
func (ctx *DatabaseContext) BlockExists(id string) (bool, error) {
	return ctx.db.Has(blockKey(id))
}

// FetchBlock returns the persisted block with the given id, or nil when
// no such block exists.
func (ctx *DatabaseContext) FetchBlock(id string) (*wire.Block, error) {
	serialized, err := ctx.db.Get(blockKey(id))
	if err != nil {
		return nil, err
	}
	if serialized == nil {
		return nil, nil
	}
	block := &wire.Block{}
	if err := json.Unmarshal(serialized, block); err != nil {
		return nil, errors.Wrapf(err, "cannot deserialize block %s", id)
	}
	return block, nil
}

// FetchBlockByHeight returns the persisted block at the given height,
// or nil when the height is beyond the tip.
func (ctx *DatabaseContext) FetchBlockByHeight(height uint64) (*wire.Block, error) {
	id, err := ctx.db.Get(blockHeightKey(height))
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, nil
	}
	return ctx.FetchBlock(string(id))
}

// TipHeight returns the height of the most recently persisted block, or
// zero when the store is empty.
func (ctx *DatabaseContext) TipHeight() (uint64, error) {
	tip, err := ctx.db.Get(tipKey)
	if err != nil {
		return 0, err
	}
	if tip == nil {
		return 0, nil
	}
	return binary.BigEndian.Uint64(tip), nil
}

// LoadLastNBlockIDs returns the ids of the n most recently persisted
// blocks, oldest first.
func (ctx *DatabaseContext) LoadLastNBlockIDs(n int) ([]string, error) {
	tipHeight, err := ctx.TipHeight()
	if err != nil {
		return nil, err
	}
	if tipHeight == 0 || n <= 0 {
		return nil, nil
	}

	firstHeight := uint64(1)
	if tipHeight > uint64(n) {
		firstHeight = tipHeight - uint64(n) + 1
	}
	ids := make([]string, 0, n)
	for height := firstHeight; height <= tipHeight; height++ {
		id, err := ctx.db.Get(blockHeightKey(height))
		if err != nil {
			return nil, err
		}
		if id == nil {
			return nil, errors.Errorf("missing height index entry for height %d", height)
		}
		ids = append(ids, string(id))
	}
	return ids, nil
}
