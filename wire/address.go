package wire

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// AddressSuffix terminates every rendered address.
const AddressSuffix = "F"

// AddressFromPublicKey derives an address from a hex-encoded public
// key: the numeric id of the key's digest followed by the address
// suffix.
func AddressFromPublicKey(publicKey string) (string, error) {
	decoded, err := hex.DecodeString(publicKey)
	if err != nil {
		return "", errors.Wrap(err, "invalid hex in public key")
	}
	if len(decoded) != PublicKeySize {
		return "", errors.Errorf("invalid public key length: got %d, want %d",
			len(decoded), PublicKeySize)
	}
	digest := sha256.Sum256(decoded)
	return idFromDigest(digest[:]) + AddressSuffix, nil
}
