package multiset

import (
	"math/rand"
	"testing"
)

func randomData(r *rand.Rand) []byte {
	data := make([]byte, 32)
	r.Read(data)
	return data
}

func TestCommutativity(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	elements := make([][]byte, 50)
	for n := range elements {
		elements[n] = randomData(r)
	}

	first := New()
	for _, element := range elements {
		first.Add(element)
	}

	second := New()
	for _, n := range r.Perm(len(elements)) {
		second.Add(elements[n])
	}

	if !first.Hash().Equal(second.Hash()) {
		t.Fatalf("permuted additions produced hash %s, expected %s", second.Hash(), first.Hash())
	}
}

func TestInversion(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	ms := New()
	element := randomData(r)

	ms.Add(element)
	ms.Remove(element)
	if !ms.Hash().Equal(EmptyHash()) {
		t.Fatalf("add followed by remove did not return to the empty hash")
	}

	// The other way around as well: a negative multiset inverts back.
	ms.Remove(element)
	ms.Update(element, false)
	if !ms.Hash().Equal(EmptyHash()) {
		t.Fatalf("remove followed by add did not return to the empty hash")
	}
}

func TestCombine(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	first := New()
	second := New()
	all := New()
	for n := 0; n < 20; n++ {
		element := randomData(r)
		first.Add(element)
		all.Add(element)
	}
	for n := 0; n < 20; n++ {
		element := randomData(r)
		second.Add(element)
		all.Add(element)
	}

	first.Combine(&second)
	if !first.Hash().Equal(all.Hash()) {
		t.Fatalf("combined hash is %s, expected %s", first.Hash(), all.Hash())
	}

	// Combining with an empty multiset is a no-op.
	empty := New()
	first.Combine(&empty)
	if !first.Hash().Equal(all.Hash()) {
		t.Fatalf("combining with the empty multiset changed the hash")
	}
}

func TestClone(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	ms := New()
	ms.Add(randomData(r))

	clone := ms.Clone()
	hashBefore := ms.Hash()
	clone.Add(randomData(r))
	if !ms.Hash().Equal(hashBefore) {
		t.Fatalf("mutating a clone changed the original")
	}
}

func TestFromBytes(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	ms := New()
	for n := 0; n < 10; n++ {
		ms.Add(randomData(r))
	}

	deserialized, err := FromBytes(ms.Serialize())
	if err != nil {
		t.Fatalf("FromBytes: %s", err)
	}
	if !deserialized.Hash().Equal(ms.Hash()) {
		t.Fatalf("deserialized hash is %s, expected %s", deserialized.Hash(), ms.Hash())
	}

	_, err = FromBytes([]byte{0x01})
	if err == nil {
		t.Fatalf("FromBytes accepted a state of the wrong length")
	}
}
