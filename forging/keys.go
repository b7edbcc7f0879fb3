package forging

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// DeriveKeyPair turns a forging secret into a Schnorr keypair. The
// secret is a BIP-39 mnemonic; its seed digest is the private key, so
// the same mnemonic always derives the same delegate keypair.
func DeriveKeyPair(secret string) (*secp256k1.SchnorrKeyPair, string, error) {
	seed := bip39.NewSeed(secret, "")
	digest := sha256.Sum256(seed)
	zeroBytes(seed)

	keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(digest[:])
	if err != nil {
		return nil, "", errors.Wrap(err, "cannot derive private key from secret")
	}
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return nil, "", errors.Wrap(err, "cannot derive public key")
	}
	serialized, err := publicKey.Serialize()
	if err != nil {
		return nil, "", errors.Wrap(err, "cannot serialize public key")
	}
	return keyPair, hex.EncodeToString(serialized[:]), nil
}

// NewSecret generates a fresh forging secret: a 256-bit BIP-39
// mnemonic.
func NewSecret() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}
