package wire

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
)

// Transaction is a single value transfer carried inside a block.
//
// Optional fields follow the compact on-wire convention: an empty
// string means the field is absent. ID and BlockID are filled by the
// processing pipeline, not by peers.
type Transaction struct {
	ID              string `json:"id,omitempty"`
	Timestamp       int64  `json:"timestamp"`
	SenderPublicKey string `json:"senderPublicKey"`
	RecipientID     string `json:"recipientId,omitempty"`
	Amount          uint64 `json:"amount"`
	Fee             uint64 `json:"fee"`
	Signature       string `json:"signature,omitempty"`
	BlockID         string `json:"blockId,omitempty"`
}

// serialize writes the transaction's canonical bytes. The signature is
// appended only when includeSignature is set: the signing digest covers
// everything but the signature itself, while ids and the payload hash
// cover the full serialization.
func (tx *Transaction) serialize(includeSignature bool) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 128))

	writeUint32(buf, uint32(tx.Timestamp))
	err := writeHex(buf, "senderPublicKey", tx.SenderPublicKey, PublicKeySize)
	if err != nil {
		return nil, err
	}
	writeVarBytes(buf, []byte(tx.RecipientID))
	writeUint64(buf, tx.Amount)
	writeUint64(buf, tx.Fee)

	if includeSignature {
		if tx.Signature == "" {
			return nil, errors.New("transaction is not signed")
		}
		err = writeHex(buf, "signature", tx.Signature, SignatureSize)
		if err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Bytes returns the full canonical serialization of the transaction,
// signature included. These are the bytes the block payload digest is
// computed over.
func (tx *Transaction) Bytes() ([]byte, error) {
	return tx.serialize(true)
}

// ComputeID derives the transaction id from its canonical bytes.
func (tx *Transaction) ComputeID() (string, error) {
	serialized, err := tx.Bytes()
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(serialized)
	return idFromDigest(digest[:]), nil
}

// signingDigest returns the digest the transaction signature commits to.
func (tx *Transaction) signingDigest() (*secp256k1.Hash, error) {
	serialized, err := tx.serialize(false)
	if err != nil {
		return nil, err
	}
	digest := secp256k1.Hash(sha256.Sum256(serialized))
	return &digest, nil
}

// Sign signs the transaction with the given keypair and fills the
// Signature field.
func (tx *Transaction) Sign(keyPair *secp256k1.SchnorrKeyPair) error {
	digest, err := tx.signingDigest()
	if err != nil {
		return err
	}
	signature, err := keyPair.SchnorrSign(digest)
	if err != nil {
		return errors.Wrap(err, "cannot sign transaction")
	}
	tx.Signature = hex.EncodeToString(signature.Serialize()[:])
	return nil
}

// VerifySignature checks the transaction signature against the sender
// public key.
func (tx *Transaction) VerifySignature() (bool, error) {
	publicKeyBytes, err := hex.DecodeString(tx.SenderPublicKey)
	if err != nil {
		return false, errors.Wrap(err, "invalid hex in senderPublicKey")
	}
	publicKey, err := secp256k1.DeserializeSchnorrPubKey(publicKeyBytes)
	if err != nil {
		return false, errors.Wrap(err, "cannot deserialize sender public key")
	}
	signatureBytes, err := hex.DecodeString(tx.Signature)
	if err != nil {
		return false, errors.Wrap(err, "invalid hex in signature")
	}
	signature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(signatureBytes)
	if err != nil {
		return false, errors.Wrap(err, "cannot deserialize signature")
	}
	digest, err := tx.signingDigest()
	if err != nil {
		return false, err
	}
	return publicKey.SchnorrVerify(digest, signature), nil
}

// Normalize validates the shape of the transaction's encoded fields.
func (tx *Transaction) Normalize() error {
	decoded, err := hex.DecodeString(tx.SenderPublicKey)
	if err != nil {
		return errors.Wrap(err, "invalid hex in senderPublicKey")
	}
	if len(decoded) != PublicKeySize {
		return errors.Errorf("invalid senderPublicKey length: got %d, want %d",
			len(decoded), PublicKeySize)
	}
	if tx.Signature != "" {
		decoded, err = hex.DecodeString(tx.Signature)
		if err != nil {
			return errors.Wrap(err, "invalid hex in signature")
		}
		if len(decoded) != SignatureSize {
			return errors.Errorf("invalid signature length: got %d, want %d",
				len(decoded), SignatureSize)
		}
	}
	if tx.Timestamp < 0 {
		return errors.Errorf("negative transaction timestamp %d", tx.Timestamp)
	}
	return nil
}

// Copy returns a deep copy of the transaction.
func (tx *Transaction) Copy() *Transaction {
	txCopy := *tx
	return &txCopy
}
