package forging

import (
	"fmt"
	"testing"

	"github.com/forgenet/forged/dbaccess"
	"github.com/forgenet/forged/wire"
)

var testPassword = []byte("correct horse battery staple")

type fakeAccounts struct {
	accounts map[string]*dbaccess.Account
}

func (fa *fakeAccounts) GetByPublicKey(publicKey string) (*dbaccess.Account, error) {
	return fa.accounts[publicKey], nil
}

// newTestEntry seals a fresh secret and returns the entry together
// with the delegate account its public key maps to.
func newTestEntry(t *testing.T, version int) (*EncryptedEntry, *dbaccess.Account) {
	t.Helper()
	secret, err := NewSecret()
	if err != nil {
		t.Fatalf("unable to generate secret: %s", err)
	}
	_, publicKey, err := DeriveKeyPair(secret)
	if err != nil {
		t.Fatalf("unable to derive keypair: %s", err)
	}
	entry, err := EncryptSecret([]byte(secret), testPassword, version)
	if err != nil {
		t.Fatalf("unable to encrypt secret: %s", err)
	}
	entry.PublicKey = publicKey

	address, err := wire.AddressFromPublicKey(publicKey)
	if err != nil {
		t.Fatalf("unable to derive address: %s", err)
	}
	account := &dbaccess.Account{
		Address:    address,
		PublicKey:  publicKey,
		Balance:    25000000000,
		IsDelegate: true,
	}
	return entry, account
}

func newTestManager(force bool, entries []*EncryptedEntry, accounts ...*dbaccess.Account) *Manager {
	accountMap := make(map[string]*dbaccess.Account)
	for _, account := range accounts {
		accountMap[account.PublicKey] = account
	}
	return New(&Config{
		Force:    force,
		Secrets:  entries,
		Password: testPassword,
		Accounts: &fakeAccounts{accounts: accountMap},
	})
}

func TestLoadDelegatesDisabled(t *testing.T) {
	var entries []*EncryptedEntry
	var accounts []*dbaccess.Account
	for i := 0; i < 3; i++ {
		entry, account := newTestEntry(t, SchemeAESGCM)
		entries = append(entries, entry)
		accounts = append(accounts, account)
	}

	manager := newTestManager(false, entries, accounts...)
	if err := manager.LoadDelegates(); err != nil {
		t.Fatalf("TestLoadDelegatesDisabled: unexpected error: %s", err)
	}
	if manager.Count() != 0 {
		t.Fatalf("TestLoadDelegatesDisabled: %d keypairs loaded with forging disabled",
			manager.Count())
	}
}

func TestLoadDelegatesNoSecrets(t *testing.T) {
	for _, entries := range [][]*EncryptedEntry{nil, {}} {
		manager := newTestManager(true, entries)
		if err := manager.LoadDelegates(); err != nil {
			t.Fatalf("TestLoadDelegatesNoSecrets: unexpected error: %s", err)
		}
		if manager.Count() != 0 {
			t.Fatalf("TestLoadDelegatesNoSecrets: %d keypairs loaded without secrets",
				manager.Count())
		}
	}
}

func TestLoadDelegatesBadSecret(t *testing.T) {
	entry, account := newTestEntry(t, SchemeAESGCM)
	// Truncating the ciphertext breaks AEAD authentication.
	entry.EncryptedSecret = entry.EncryptedSecret[:8]

	manager := newTestManager(true, []*EncryptedEntry{entry}, account)
	err := manager.LoadDelegates()
	wantError := fmt.Sprintf("Invalid encryptedSecret for publicKey: %s", entry.PublicKey)
	if err == nil || err.Error() != wantError {
		t.Fatalf("TestLoadDelegatesBadSecret: want %q, got %v", wantError, err)
	}
	if manager.Count() != 0 {
		t.Fatalf("TestLoadDelegatesBadSecret: keypairs loaded after failure")
	}
}

func TestLoadDelegatesWrongPassword(t *testing.T) {
	entry, account := newTestEntry(t, SchemeXChaCha20)

	manager := newTestManager(true, []*EncryptedEntry{entry}, account)
	manager.password = []byte("not the password")
	err := manager.LoadDelegates()
	wantError := fmt.Sprintf("Invalid encryptedSecret for publicKey: %s", entry.PublicKey)
	if err == nil || err.Error() != wantError {
		t.Fatalf("TestLoadDelegatesWrongPassword: want %q, got %v", wantError, err)
	}
}

func TestLoadDelegatesPublicKeyMismatch(t *testing.T) {
	entry, account := newTestEntry(t, SchemeAESGCM)
	other, _ := newTestEntry(t, SchemeAESGCM)
	// The sealed secret now derives a keypair that does not match the
	// declared public key.
	entry.PublicKey = other.PublicKey

	manager := newTestManager(true, []*EncryptedEntry{entry}, account)
	err := manager.LoadDelegates()
	if err == nil || err.Error() != "Public keys do not match" {
		t.Fatalf("TestLoadDelegatesPublicKeyMismatch: want mismatch error, got %v", err)
	}
}

func TestLoadDelegatesMissingAccount(t *testing.T) {
	entry, _ := newTestEntry(t, SchemeAESGCM)

	manager := newTestManager(true, []*EncryptedEntry{entry})
	err := manager.LoadDelegates()
	wantError := fmt.Sprintf("Account with public key: %s not found", entry.PublicKey)
	if err == nil || err.Error() != wantError {
		t.Fatalf("TestLoadDelegatesMissingAccount: want %q, got %v", wantError, err)
	}
}

func TestLoadDelegatesSkipsNonDelegate(t *testing.T) {
	entry, account := newTestEntry(t, SchemeAESGCM)
	account.IsDelegate = false

	manager := newTestManager(true, []*EncryptedEntry{entry}, account)
	if err := manager.LoadDelegates(); err != nil {
		t.Fatalf("TestLoadDelegatesSkipsNonDelegate: unexpected error: %s", err)
	}
	if manager.Count() != 0 {
		t.Fatalf("TestLoadDelegatesSkipsNonDelegate: non-delegate keypair loaded")
	}
}

func TestLoadDelegatesAllSchemes(t *testing.T) {
	var entries []*EncryptedEntry
	var accounts []*dbaccess.Account
	for _, version := range []int{SchemeAESGCM, SchemeXChaCha20, SchemeAESGCM} {
		entry, account := newTestEntry(t, version)
		entries = append(entries, entry)
		accounts = append(accounts, account)
	}

	manager := newTestManager(true, entries, accounts...)
	if err := manager.LoadDelegates(); err != nil {
		t.Fatalf("TestLoadDelegatesAllSchemes: unexpected error: %s", err)
	}
	if manager.Count() != 3 {
		t.Fatalf("TestLoadDelegatesAllSchemes: want 3 keypairs, got %d", manager.Count())
	}
	for _, entry := range entries {
		if manager.Keypair(entry.PublicKey) == nil {
			t.Fatalf("TestLoadDelegatesAllSchemes: keypair for %s missing", entry.PublicKey)
		}
	}
}

func TestLoadDelegatesFullRoster(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full delegate roster in short mode")
	}

	const roster = 101
	var entries []*EncryptedEntry
	var accounts []*dbaccess.Account
	for i := 0; i < roster; i++ {
		entry, account := newTestEntry(t, SchemeAESGCM)
		entries = append(entries, entry)
		accounts = append(accounts, account)
	}

	manager := newTestManager(true, entries, accounts...)
	if err := manager.LoadDelegates(); err != nil {
		t.Fatalf("TestLoadDelegatesFullRoster: unexpected error: %s", err)
	}
	if manager.Count() != roster {
		t.Fatalf("TestLoadDelegatesFullRoster: want %d keypairs, got %d",
			roster, manager.Count())
	}
}

func TestLoadDelegatesAbortsOnFirstFailure(t *testing.T) {
	good, goodAccount := newTestEntry(t, SchemeAESGCM)
	bad, badAccount := newTestEntry(t, SchemeAESGCM)
	bad.EncryptedSecret = bad.EncryptedSecret[:8]

	manager := newTestManager(true, []*EncryptedEntry{good, bad}, goodAccount, badAccount)
	if err := manager.LoadDelegates(); err == nil {
		t.Fatalf("TestLoadDelegatesAbortsOnFirstFailure: failing entry accepted")
	}
	// The first entry loaded before the sweep aborted.
	if manager.Keypair(good.PublicKey) == nil {
		t.Fatalf("TestLoadDelegatesAbortsOnFirstFailure: leading entry not loaded")
	}
}
