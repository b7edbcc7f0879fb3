package dbaccess

import (
	"github.com/forgenet/forged/database/ldb"
)

// DatabaseContext carries the database handle the accessors in this
// package operate on. It exists so that callers hold a single typed
// reference instead of a raw key-value store.
type DatabaseContext struct {
	db *ldb.LevelDB
}

// New opens the node database at the given path, creating it when it
// does not exist yet.
func New(path string) (*DatabaseContext, error) {
	db, err := ldb.NewLevelDB(path)
	if err != nil {
		return nil, err
	}
	return &DatabaseContext{db: db}, nil
}

// Close closes the underlying database.
func (ctx *DatabaseContext) Close() error {
	return ctx.db.Close()
}
