package hashes

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// HashSize of array used to store hashes.
const HashSize = 32

// Hash is an opaque 32-byte commitment hash.
type Hash struct {
	hashArray [HashSize]byte
}

// NewHashFromByteArray constructs a new Hash out of a byte array
func NewHashFromByteArray(hashBytes *[HashSize]byte) *Hash {
	return &Hash{
		hashArray: *hashBytes,
	}
}

// NewHashFromByteSlice constructs a new Hash out of a byte slice.
// Returns an error if the length of the byte slice is not exactly `HashSize`
func NewHashFromByteSlice(hashBytes []byte) (*Hash, error) {
	if len(hashBytes) != HashSize {
		return nil, errors.Errorf("invalid hash size. Want: %d, got: %d",
			HashSize, len(hashBytes))
	}
	hash := Hash{}
	copy(hash.hashArray[:], hashBytes)
	return &hash, nil
}

// NewHashFromString constructs a new Hash out of a hex-encoded string.
// Returns an error if the length of the string is not exactly `HashSize * 2`
func NewHashFromString(hashString string) (*Hash, error) {
	expectedLength := HashSize * 2
	if len(hashString) != expectedLength {
		return nil, errors.Errorf("hash string length is %d, while it should be be %d",
			len(hashString), expectedLength)
	}

	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return NewHashFromByteSlice(hashBytes)
}

// String returns the Hash as the hexadecimal string of the hash.
func (hash Hash) String() string {
	return hex.EncodeToString(hash.hashArray[:])
}

// ByteArray returns the bytes in this hash represented as a bytes array.
// The hash bytes are cloned, therefore it is safe to modify the resulting array.
func (hash *Hash) ByteArray() *[HashSize]byte {
	arrayClone := hash.hashArray
	return &arrayClone
}

// ByteSlice returns the bytes in this hash represented as a bytes slice.
// The hash bytes are cloned, therefore it is safe to modify the resulting slice.
func (hash *Hash) ByteSlice() []byte {
	return hash.ByteArray()[:]
}

// Equal returns whether hash equals to other
func (hash *Hash) Equal(other *Hash) bool {
	if hash == nil || other == nil {
		return hash == other
	}

	return hash.hashArray == other.hashArray
}
