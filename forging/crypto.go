package forging

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

// Encryption scheme versions for forging secrets. The entry's version
// field selects the KDF and AEAD used to seal the secret.
const (
	// SchemeAESGCM derives the key with PBKDF2-SHA256 and seals with
	// AES-256-GCM.
	SchemeAESGCM = 0

	// SchemeXChaCha20 derives the key with argon2id and seals with
	// XChaCha20-Poly1305.
	SchemeXChaCha20 = 1
)

const (
	pbkdf2Iterations = 100000
	keySize          = 32
	saltSize         = 16
	tagSize          = 16
	gcmNonceSize     = 12
)

// EncryptedEntry is one configured forging secret: an AEAD-sealed
// passphrase bound to the delegate public key it is expected to derive.
type EncryptedEntry struct {
	PublicKey       string `json:"publicKey"`
	EncryptedSecret string `json:"encryptedSecret"`
	IV              string `json:"iv"`
	Salt            string `json:"salt"`
	Tag             string `json:"tag"`
	Version         int    `json:"version"`
}

func (entry *EncryptedEntry) decodeFields() (ciphertext, iv, salt, tag []byte, err error) {
	ciphertext, err = hex.DecodeString(entry.EncryptedSecret)
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "invalid hex in encryptedSecret")
	}
	iv, err = hex.DecodeString(entry.IV)
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "invalid hex in iv")
	}
	salt, err = hex.DecodeString(entry.Salt)
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "invalid hex in salt")
	}
	tag, err = hex.DecodeString(entry.Tag)
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "invalid hex in tag")
	}
	return ciphertext, iv, salt, tag, nil
}

func aeadForScheme(version int, password, salt []byte, nonceSize int) (cipher.AEAD, error) {
	switch version {
	case SchemeAESGCM:
		key := pbkdf2.Key(password, salt, pbkdf2Iterations, keySize, sha256.New)
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCMWithNonceSize(block, nonceSize)
	case SchemeXChaCha20:
		key := argon2.IDKey(password, salt, 1, 64*1024, 4, keySize)
		return chacha20poly1305.NewX(key)
	default:
		return nil, errors.Errorf("unknown encryption scheme version %d", version)
	}
}

// decryptSecret opens an encrypted forging entry with the node
// password. The authentication tag is checked as part of the open, so
// any tampering or a wrong password fails here.
func decryptSecret(entry *EncryptedEntry, password []byte) ([]byte, error) {
	ciphertext, iv, salt, tag, err := entry.decodeFields()
	if err != nil {
		return nil, err
	}
	aead, err := aeadForScheme(entry.Version, password, salt, len(iv))
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	return aead.Open(nil, iv, sealed, nil)
}

// EncryptSecret seals a forging secret under the given password with
// the chosen scheme version, generating a fresh salt and nonce. The
// caller binds the resulting entry to its delegate public key.
func EncryptSecret(secret, password []byte, version int) (*EncryptedEntry, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	nonceSize := gcmNonceSize
	if version == SchemeXChaCha20 {
		nonceSize = chacha20poly1305.NonceSizeX
	}
	iv := make([]byte, nonceSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	aead, err := aeadForScheme(version, password, salt, nonceSize)
	if err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, iv, secret, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return &EncryptedEntry{
		EncryptedSecret: hex.EncodeToString(ciphertext),
		IV:              hex.EncodeToString(iv),
		Salt:            hex.EncodeToString(salt),
		Tag:             hex.EncodeToString(tag),
		Version:         version,
	}, nil
}

// zeroBytes overwrites b. Decrypted secrets are cleared as soon as the
// keypair is derived.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
