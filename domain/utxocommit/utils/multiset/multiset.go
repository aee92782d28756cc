package multiset

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"

	"github.com/utxocommit/utxocommitd/domain/utxocommit/utils/hashes"
)

// MultiSet is a commutative, invertible hash-accumulator over byte strings,
// backed by the secp256k1 multiset module. The zero-field layout is not
// usable; construct values with New or FromBytes. MultiSet is held by value
// so that arenas of multisets stay pointer-free; a plain struct copy is a
// valid clone.
type MultiSet struct {
	ms secp256k1.MultiSet
}

// New returns an empty multiset
func New() MultiSet {
	return MultiSet{ms: *secp256k1.NewMultiset()}
}

// Add folds the given data into the multiset
func (m *MultiSet) Add(data []byte) {
	m.ms.Add(data)
}

// Remove is the inverse of Add with the same data
func (m *MultiSet) Remove(data []byte) {
	m.ms.Remove(data)
}

// Update adds or removes the given data, depending on the remove flag
func (m *MultiSet) Update(data []byte, remove bool) {
	if remove {
		m.ms.Remove(data)
	} else {
		m.ms.Add(data)
	}
}

// Combine merges the other multiset into this one. The operation is
// commutative and associative, and combining with an empty multiset is a
// no-op.
func (m *MultiSet) Combine(other *MultiSet) {
	m.ms.Combine(&other.ms)
}

// Hash finalizes the multiset into its 32-byte digest
func (m *MultiSet) Hash() *hashes.Hash {
	finalizedHash := m.ms.Finalize()
	finalizedHashAsByteArray := (*[secp256k1.HashSize]byte)(finalizedHash)
	return hashes.NewHashFromByteArray(finalizedHashAsByteArray)
}

// Serialize returns the serialized multiset state
func (m *MultiSet) Serialize() []byte {
	return m.ms.Serialize()[:]
}

// Clone returns a copy of the multiset
func (m *MultiSet) Clone() MultiSet {
	msClone := m.ms
	return MultiSet{ms: msClone}
}

// FromBytes deserializes the given bytes slice and returns a multiset.
func FromBytes(multisetBytes []byte) (MultiSet, error) {
	serialized := &secp256k1.SerializedMultiSet{}
	if len(serialized) != len(multisetBytes) {
		return MultiSet{}, errors.Errorf("multiset bytes expected to be in length of %d but got %d",
			len(serialized), len(multisetBytes))
	}
	copy(serialized[:], multisetBytes)
	ms, err := secp256k1.DeserializeMultiSet(serialized)
	if err != nil {
		return MultiSet{}, err
	}

	return MultiSet{ms: *ms}, nil
}

// EmptyHash returns the distinguished digest of an empty multiset.
func EmptyHash() *hashes.Hash {
	empty := New()
	return empty.Hash()
}
