package forging

import (
	"github.com/forgenet/forged/blockchain"
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
)

// Config holds everything a forging Manager is built from.
type Config struct {
	// Force enables forging. When unset the configured secrets are
	// ignored entirely.
	Force bool

	// Secrets are the encrypted forging entries from the node
	// configuration, in configuration order.
	Secrets []*EncryptedEntry

	// Password is the node password the secrets are sealed under.
	Password []byte

	// Accounts resolves delegate accounts by public key.
	Accounts blockchain.AccountStore
}

// Manager holds the keypairs the node may forge with, keyed by hex
// public key. It is populated once at startup by LoadDelegates and
// read-only afterwards.
type Manager struct {
	force    bool
	secrets  []*EncryptedEntry
	password []byte
	accounts blockchain.AccountStore

	keypairs map[string]*secp256k1.SchnorrKeyPair
}

// New constructs a forging Manager.
func New(config *Config) *Manager {
	return &Manager{
		force:    config.Force,
		secrets:  config.Secrets,
		password: config.Password,
		accounts: config.Accounts,
		keypairs: make(map[string]*secp256k1.SchnorrKeyPair),
	}
}

// LoadDelegates decrypts the configured forging secrets and matches
// them to registered delegate accounts. The sweep aborts on the first
// failing entry; entries whose account exists but is not a delegate are
// skipped silently.
func (m *Manager) LoadDelegates() error {
	if !m.force {
		log.Debugf("Forging is disabled, not loading delegate keypairs")
		return nil
	}
	if len(m.secrets) == 0 {
		return nil
	}
	log.Infof("Loading %d delegate keypairs from encrypted secrets", len(m.secrets))

	for _, entry := range m.secrets {
		secret, err := decryptSecret(entry, m.password)
		if err != nil {
			return errors.Errorf("Invalid encryptedSecret for publicKey: %s",
				entry.PublicKey)
		}
		keyPair, publicKey, err := DeriveKeyPair(string(secret))
		zeroBytes(secret)
		if err != nil {
			return err
		}
		if publicKey != entry.PublicKey {
			return errors.New("Public keys do not match")
		}

		account, err := m.accounts.GetByPublicKey(entry.PublicKey)
		if err != nil {
			return err
		}
		if account == nil {
			return errors.Errorf("Account with public key: %s not found",
				entry.PublicKey)
		}
		if !account.IsDelegate {
			log.Warnf("Account with public key %s is not a delegate, skipping",
				entry.PublicKey)
			continue
		}

		m.keypairs[publicKey] = keyPair
		log.Infof("Forging enabled on account: %s", account.Address)
	}
	return nil
}

// Keypair returns the loaded keypair for the given hex public key, or
// nil when the node does not forge for it.
func (m *Manager) Keypair(publicKey string) *secp256k1.SchnorrKeyPair {
	return m.keypairs[publicKey]
}

// Count returns the number of loaded forging keypairs.
func (m *Manager) Count() int {
	return len(m.keypairs)
}
