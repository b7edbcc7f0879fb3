package wire

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
)

// Block is a candidate chain extension as carried on the wire and held
// in storage.
//
// PreviousBlock is the id of the block this one extends; it is empty
// only on the genesis block. ID is derived from the canonical bytes and
// may be empty on inbound blocks until verification fills it. Fields
// tagged omitempty are stripped from the compact broadcast form when
// they hold their canonical default.
type Block struct {
	ID                   string         `json:"id,omitempty"`
	Version              uint32         `json:"version,omitempty"`
	Timestamp            int64          `json:"timestamp"`
	Height               uint64         `json:"height,omitempty"`
	PreviousBlock        string         `json:"previousBlock,omitempty"`
	NumberOfTransactions uint32         `json:"numberOfTransactions,omitempty"`
	TotalAmount          uint64         `json:"totalAmount,omitempty"`
	TotalFee             uint64         `json:"totalFee,omitempty"`
	Reward               uint64         `json:"reward,omitempty"`
	PayloadLength        uint32         `json:"payloadLength,omitempty"`
	PayloadHash          string         `json:"payloadHash"`
	GeneratorPublicKey   string         `json:"generatorPublicKey"`
	BlockSignature       string         `json:"blockSignature,omitempty"`
	Transactions         []*Transaction `json:"transactions,omitempty"`
}

// serialize writes the block's canonical bytes. The block signature is
// appended only when includeSignature is set; the signing digest covers
// everything but the signature, the block id covers the full
// serialization.
func (b *Block) serialize(includeSignature bool) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 256))

	writeUint32(buf, b.Version)
	writeUint32(buf, uint32(b.Timestamp))

	var previousBlock uint64
	if b.PreviousBlock != "" {
		var err error
		previousBlock, err = parseID(b.PreviousBlock)
		if err != nil {
			return nil, err
		}
	}
	writeUint64(buf, previousBlock)

	writeUint32(buf, b.NumberOfTransactions)
	writeUint64(buf, b.TotalAmount)
	writeUint64(buf, b.TotalFee)
	writeUint64(buf, b.Reward)
	writeUint32(buf, b.PayloadLength)

	err := writeHex(buf, "payloadHash", b.PayloadHash, PayloadHashSize)
	if err != nil {
		return nil, err
	}
	err = writeHex(buf, "generatorPublicKey", b.GeneratorPublicKey, PublicKeySize)
	if err != nil {
		return nil, err
	}

	if includeSignature {
		if b.BlockSignature == "" {
			return nil, errors.New("block is not signed")
		}
		err = writeHex(buf, "blockSignature", b.BlockSignature, SignatureSize)
		if err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Bytes returns the full canonical serialization of the block,
// signature included.
func (b *Block) Bytes() ([]byte, error) {
	return b.serialize(true)
}

// ComputeID derives the block id from the canonical bytes. It does not
// assign the id; callers decide whether to fill the field.
func (b *Block) ComputeID() (string, error) {
	serialized, err := b.Bytes()
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(serialized)
	return idFromDigest(digest[:]), nil
}

// signingDigest returns the digest the block signature commits to.
func (b *Block) signingDigest() (*secp256k1.Hash, error) {
	serialized, err := b.serialize(false)
	if err != nil {
		return nil, err
	}
	digest := secp256k1.Hash(sha256.Sum256(serialized))
	return &digest, nil
}

// Sign signs the block with the forger's keypair and fills
// BlockSignature.
func (b *Block) Sign(keyPair *secp256k1.SchnorrKeyPair) error {
	digest, err := b.signingDigest()
	if err != nil {
		return err
	}
	signature, err := keyPair.SchnorrSign(digest)
	if err != nil {
		return errors.Wrap(err, "cannot sign block")
	}
	b.BlockSignature = hex.EncodeToString(signature.Serialize()[:])
	return nil
}

// VerifySignature checks the block signature against the generator
// public key.
func (b *Block) VerifySignature() (bool, error) {
	publicKeyBytes, err := hex.DecodeString(b.GeneratorPublicKey)
	if err != nil {
		return false, errors.Wrap(err, "invalid hex in generatorPublicKey")
	}
	publicKey, err := secp256k1.DeserializeSchnorrPubKey(publicKeyBytes)
	if err != nil {
		return false, errors.Wrap(err, "cannot deserialize generator public key")
	}
	signatureBytes, err := hex.DecodeString(b.BlockSignature)
	if err != nil {
		return false, errors.Wrap(err, "invalid hex in blockSignature")
	}
	signature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(signatureBytes)
	if err != nil {
		return false, errors.Wrap(err, "cannot deserialize block signature")
	}
	digest, err := b.signingDigest()
	if err != nil {
		return false, err
	}
	return publicKey.SchnorrVerify(digest, signature), nil
}

// PayloadDigest computes the payload hash over the concatenated
// canonical bytes of the block's transactions, along with the summed
// payload length, total amount and total fee.
func (b *Block) PayloadDigest() (digest string, payloadLength uint32, totalAmount, totalFee uint64, err error) {
	hasher := sha256.New()
	for _, tx := range b.Transactions {
		txBytes, err := tx.Bytes()
		if err != nil {
			return "", 0, 0, 0, err
		}
		hasher.Write(txBytes)
		payloadLength += uint32(len(txBytes))
		totalAmount += tx.Amount
		totalFee += tx.Fee
	}
	return hex.EncodeToString(hasher.Sum(nil)), payloadLength, totalAmount, totalFee, nil
}

// Normalize validates the shape of the block's encoded fields and of
// every transaction it carries.
func (b *Block) Normalize() error {
	decoded, err := hex.DecodeString(b.PayloadHash)
	if err != nil {
		return errors.Wrap(err, "invalid hex in payloadHash")
	}
	if len(decoded) != PayloadHashSize {
		return errors.Errorf("invalid payloadHash length: got %d, want %d",
			len(decoded), PayloadHashSize)
	}
	decoded, err = hex.DecodeString(b.GeneratorPublicKey)
	if err != nil {
		return errors.Wrap(err, "invalid hex in generatorPublicKey")
	}
	if len(decoded) != PublicKeySize {
		return errors.Errorf("invalid generatorPublicKey length: got %d, want %d",
			len(decoded), PublicKeySize)
	}
	if b.BlockSignature != "" {
		decoded, err = hex.DecodeString(b.BlockSignature)
		if err != nil {
			return errors.Wrap(err, "invalid hex in blockSignature")
		}
		if len(decoded) != SignatureSize {
			return errors.Errorf("invalid blockSignature length: got %d, want %d",
				len(decoded), SignatureSize)
		}
	}
	if b.PreviousBlock != "" {
		if _, err := parseID(b.PreviousBlock); err != nil {
			return err
		}
	}
	if b.Timestamp < 0 {
		return errors.Errorf("negative block timestamp %d", b.Timestamp)
	}
	for _, tx := range b.Transactions {
		if err := tx.Normalize(); err != nil {
			return err
		}
	}
	return nil
}

// Copy returns a deep copy of the block.
func (b *Block) Copy() *Block {
	blockCopy := *b
	if b.Transactions != nil {
		blockCopy.Transactions = make([]*Transaction, len(b.Transactions))
		for i, tx := range b.Transactions {
			blockCopy.Transactions[i] = tx.Copy()
		}
	}
	return &blockCopy
}
