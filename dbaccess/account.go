package dbaccess

import (
	"encoding/json"

	"github.com/pkg/errors"
)

var (
	accountBucket   = []byte("account/")
	publicKeyBucket = []byte("account-pk/")
	delegateListKey = []byte("delegates")
)

// Account is the persistent state of an address: its balance and, for
// registered delegates, the delegate flag and username. PublicKey is
// empty until the address has sent its first transaction (a cold
// wallet holds funds before its key is known).
type Account struct {
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey,omitempty"`
	Balance    uint64 `json:"balance"`
	IsDelegate bool   `json:"isDelegate,omitempty"`
	Username   string `json:"username,omitempty"`
	Vote       uint64 `json:"vote,omitempty"`
}

func accountKey(address string) []byte {
	return append(accountBucket[:len(accountBucket):len(accountBucket)], address...)
}

func publicKeyKey(publicKey string) []byte {
	return append(publicKeyBucket[:len(publicKeyBucket):len(publicKeyBucket)], publicKey...)
}

// StoreAccount persists an account keyed by its address, maintaining
// the public-key index and the delegate list.
func (ctx *DatabaseContext) StoreAccount(account *Account) error {
	serialized, err := json.Marshal(account)
	if err != nil {
		return errors.Wrap(err, "cannot serialize account")
	}
	if err := ctx.db.Put(accountKey(account.Address), serialized); err != nil {
		return err
	}
	if account.PublicKey != "" {
		err := ctx.db.Put(publicKeyKey(account.PublicKey), []byte(account.Address))
		if err != nil {
			return err
		}
	}
	if account.IsDelegate {
		return ctx.addDelegate(account.PublicKey)
	}
	return nil
}

// FetchAccountByAddress returns the account with the given address, or
// nil when no such account is materialized.
func (ctx *DatabaseContext) FetchAccountByAddress(address string) (*Account, error) {
	serialized, err := ctx.db.Get(accountKey(address))
	if err != nil {
		return nil, err
	}
	if serialized == nil {
		return nil, nil
	}
	account := &Account{}
	if err := json.Unmarshal(serialized, account); err != nil {
		return nil, errors.Wrapf(err, "cannot deserialize account %s", address)
	}
	return account, nil
}

// FetchAccount returns the account with the given public key, or nil
// when no account with that key is materialized.
func (ctx *DatabaseContext) FetchAccount(publicKey string) (*Account, error) {
	address, err := ctx.db.Get(publicKeyKey(publicKey))
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, nil
	}
	return ctx.FetchAccountByAddress(string(address))
}

func (ctx *DatabaseContext) addDelegate(publicKey string) error {
	delegates, err := ctx.FetchDelegatePublicKeys()
	if err != nil {
		return err
	}
	for _, delegate := range delegates {
		if delegate == publicKey {
			return nil
		}
	}
	delegates = append(delegates, publicKey)
	serialized, err := json.Marshal(delegates)
	if err != nil {
		return errors.Wrap(err, "cannot serialize delegate list")
	}
	return ctx.db.Put(delegateListKey, serialized)
}

// FetchDelegatePublicKeys returns the public keys of every registered
// delegate, in registration order.
func (ctx *DatabaseContext) FetchDelegatePublicKeys() ([]string, error) {
	serialized, err := ctx.db.Get(delegateListKey)
	if err != nil {
		return nil, err
	}
	if serialized == nil {
		return nil, nil
	}
	var delegates []string
	if err := json.Unmarshal(serialized, &delegates); err != nil {
		return nil, errors.Wrap(err, "cannot deserialize delegate list")
	}
	return delegates, nil
}
