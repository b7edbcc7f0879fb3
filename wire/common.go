package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/pkg/errors"
)

// Field sizes of the serialized entities, in bytes.
const (
	// PublicKeySize is the serialized size of a Schnorr public key.
	PublicKeySize = 32

	// SignatureSize is the serialized size of a Schnorr signature.
	SignatureSize = 64

	// PayloadHashSize is the size of a block payload digest.
	PayloadHashSize = 32

	// idBytes is the number of leading digest bytes an entity id is
	// derived from.
	idBytes = 8
)

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeVarBytes(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

// writeHex decodes the hex field and appends it to buf, enforcing the
// expected decoded size. An empty expected size skips the length check.
func writeHex(buf *bytes.Buffer, field, value string, size int) error {
	decoded, err := hex.DecodeString(value)
	if err != nil {
		return errors.Wrapf(err, "invalid hex in %s", field)
	}
	if size != 0 && len(decoded) != size {
		return errors.Errorf("invalid %s length: got %d, want %d",
			field, len(decoded), size)
	}
	buf.Write(decoded)
	return nil
}

// idFromDigest derives the numeric entity id from a serialization
// digest: the first 8 digest bytes read as a little-endian integer,
// rendered in decimal.
func idFromDigest(digest []byte) string {
	return strconv.FormatUint(binary.LittleEndian.Uint64(digest[:idBytes]), 10)
}

// parseID parses a decimal entity id back into its numeric form.
func parseID(id string) (uint64, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid block id %q", id)
	}
	return n, nil
}
