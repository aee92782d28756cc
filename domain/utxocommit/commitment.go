package utxocommit

import (
	"github.com/utxocommit/utxocommitd/domain/utxocommit/utils/hashes"
	"github.com/utxocommit/utxocommitd/domain/utxocommit/utils/multiset"
)

// Commitment is a flat, single-multiset commitment over element byte
// strings, without the tree scaffolding of UTXOCommit.
//
// A Commitment allows "negative sets":
//
//	c := NewCommitment() // c is an empty set
//	c.Remove(x)          // c is the empty set "minus" x
//	c.Add(x)             // c is an empty set
//
// This means a Commitment can represent either a total element set or a
// delta to one, with the same type.
type Commitment struct {
	ms multiset.MultiSet
}

// NewCommitment constructs an empty Commitment.
func NewCommitment() *Commitment {
	return &Commitment{ms: multiset.New()}
}

// CombineCommitments constructs a Commitment holding the combined contents
// of the two given commitments, which are left untouched.
func CombineCommitments(first *Commitment, second *Commitment) *Commitment {
	combined := NewCommitment()
	combined.ms.Combine(&first.ms)
	combined.ms.Combine(&second.ms)
	return combined
}

// Add folds an element into the commitment.
func (c *Commitment) Add(element []byte) {
	c.ms.Add(element)
}

// Remove removes an element from the commitment.
func (c *Commitment) Remove(element []byte) {
	c.ms.Remove(element)
}

// Clear resets the commitment to the empty set.
func (c *Commitment) Clear() {
	c.ms = multiset.New()
}

// Hash returns the commitment's 32-byte digest.
func (c *Commitment) Hash() *hashes.Hash {
	return c.ms.Hash()
}

// Equal returns whether the two commitments commit to the same multiset.
func (c *Commitment) Equal(other *Commitment) bool {
	return c.Hash().Equal(other.Hash())
}

// Serialize returns the commitment's multiset state.
func (c *Commitment) Serialize() []byte {
	return c.ms.Serialize()
}

// DeserializeCommitment reconstructs a Commitment from the bytes produced by
// Serialize.
func DeserializeCommitment(serialized []byte) (*Commitment, error) {
	ms, err := multiset.FromBytes(serialized)
	if err != nil {
		return nil, err
	}
	return &Commitment{ms: ms}, nil
}
