package utxocommit

import (
	"math/rand"
	"testing"

	"github.com/utxocommit/utxocommitd/domain/utxocommit/model"
)

func TestGetBranch(t *testing.T) {
	element := []byte{0x12, 0x34, 0xab}
	tests := []struct {
		depth    uint32
		expected uint32
	}{
		{depth: 1, expected: 0x2},
		{depth: 2, expected: 0x3},
		{depth: 3, expected: 0x4},
		{depth: 4, expected: 0xa},
		{depth: 5, expected: 0xb},
	}
	for _, test := range tests {
		branch := getBranch(test.depth, element)
		if branch != test.expected {
			t.Errorf("getBranch(%d) = %x, expected %x", test.depth, branch, test.expected)
		}
	}
}

func TestSplitNode(t *testing.T) {
	trunk := newTrunkNode()
	originalData := trunk.nodes[0].data

	trunk.splitNode(0)

	if !trunk.nodes[0].isBranch {
		t.Fatalf("split node did not become a branch")
	}
	if len(trunk.nodes) != 1+branchCount {
		t.Fatalf("expected %d nodes after split, got %d", 1+branchCount, len(trunk.nodes))
	}
	if len(trunk.multisets) != branchCount {
		t.Fatalf("expected %d multisets after split, got %d", branchCount, len(trunk.multisets))
	}

	branch := trunk.branches[trunk.nodes[0].data]
	for n := 0; n < branchCount; n++ {
		childIndex := branch[n]
		if childIndex != uint32(1+n) {
			t.Fatalf("branch slot %d references node %d, expected %d", n, childIndex, 1+n)
		}
		if trunk.nodes[childIndex].isBranch {
			t.Fatalf("new child %d is not a leaf", n)
		}
	}

	// The first new child takes over the multiset of the split leaf.
	if trunk.nodes[branch[0]].data != originalData {
		t.Fatalf("first child multiset index is %d, expected %d", trunk.nodes[branch[0]].data, originalData)
	}
}

func TestSetCapacity(t *testing.T) {
	trunk := newTrunkNode()

	// Too small an estimate must not split at all.
	trunk.setCapacity(maxLeafSize/2, 0)
	if trunk.nodes[0].isBranch {
		t.Fatalf("setCapacity split a leaf that fits the estimate")
	}

	// An estimate of a full trunk splits one level but leaves the
	// children alone once their estimated share fits.
	trunk.setCapacity(maxLeafSize*4, 0)
	if !trunk.nodes[0].isBranch {
		t.Fatalf("setCapacity did not split an overfull leaf")
	}
	for _, childNode := range trunk.branches[trunk.nodes[0].data] {
		if trunk.nodes[childNode].isBranch {
			t.Fatalf("setCapacity split a child whose share fits")
		}
	}
}

// TestSplitCorrectness inserts maxLeafSize+1 elements sharing a common
// 8-bit prefix, normalizes, and checks both the resulting tree shape and
// that the digest matches an engine that was pre-shaped with setCapacity.
func TestSplitCorrectness(t *testing.T) {
	r := rand.New(rand.NewSource(10))
	set := model.NewInMemoryUTXODataSet()
	for n := 0; n < maxLeafSize+1; n++ {
		element := randomElement(r)
		element[0] = 0x3d
		set.Add(element)
	}

	utxoCommit := New()
	for _, element := range set.Elements() {
		utxoCommit.Update(element, false)
	}
	err := utxoCommit.Normalize(set)
	if err != nil {
		t.Fatalf("Normalize: %s", err)
	}

	// Trunk 0x3 must now be a branch whose 0xd child is a branch of 16
	// leaves holding all elements between them.
	trunk := utxoCommit.trunkNodes[0x3]
	if !trunk.nodes[0].isBranch {
		t.Fatalf("trunk root was not split")
	}
	innerIndex := trunk.branches[trunk.nodes[0].data][0xd]
	inner := trunk.nodes[innerIndex]
	if !inner.isBranch {
		t.Fatalf("the common-prefix child was not split")
	}
	childSum := int64(0)
	for _, childNode := range trunk.branches[inner.data] {
		if trunk.nodes[childNode].isBranch {
			t.Fatalf("grandchild %d is not a leaf", childNode)
		}
		childSum += trunk.nodes[childNode].count
	}
	if childSum != maxLeafSize+1 {
		t.Fatalf("children hold %d elements, expected %d", childSum, maxLeafSize+1)
	}

	// The digest must match an engine whose trunk was pre-shaped before
	// loading. A one-level pre-split converges to the same shape: the
	// common-prefix child overflows and is split by Normalize.
	preShaped := New()
	preShaped.trunkNodes[0x3].setCapacity(2*maxLeafSize, 0)
	for _, element := range set.Elements() {
		preShaped.Update(element, false)
	}
	err = preShaped.Normalize(set)
	if err != nil {
		t.Fatalf("Normalize: %s", err)
	}
	if !utxoCommit.Hash().Equal(preShaped.Hash()) {
		t.Fatalf("split hash %s != pre-shaped hash %s", utxoCommit.Hash(), preShaped.Hash())
	}
}

// TestCollapse grows a subtree past the leaf bound, shrinks it back down by
// removing most elements, and checks that normalization collapses the thin
// subtree into a single leaf again.
func TestCollapse(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	set := model.NewInMemoryUTXODataSet()
	elements := make([][]byte, 10000)
	for n := range elements {
		elements[n] = randomElement(r)
		elements[n][0] = 0x3d
		set.Add(elements[n])
	}

	shrunk := New()
	for _, element := range elements {
		shrunk.Update(element, false)
	}
	err := shrunk.Normalize(set)
	if err != nil {
		t.Fatalf("Normalize: %s", err)
	}

	// Remove all but 500 elements and normalize against the shrunk set.
	for _, element := range elements[500:] {
		set.Remove(element)
		shrunk.Update(element, true)
	}
	err = shrunk.Normalize(set)
	if err != nil {
		t.Fatalf("Normalize: %s", err)
	}
	checkInvariants(t, shrunk)

	// The shrunk engine must match an engine that only ever saw the 500
	// remaining elements, with its trunk pre-split a single level like
	// the shrunk engine's is.
	fresh := New()
	fresh.trunkNodes[0x3].setCapacity(2*maxLeafSize, 0)
	for _, element := range elements[:500] {
		fresh.Update(element, false)
	}
	err = fresh.Normalize(set)
	if err != nil {
		t.Fatalf("Normalize: %s", err)
	}

	if !shrunk.Hash().Equal(fresh.Hash()) {
		t.Fatalf("collapsed hash %s != fresh hash %s", shrunk.Hash(), fresh.Hash())
	}
}

// TestNormalizeInconsistentStore checks that a split aborts when the store
// produces a different element count than the tree believes.
func TestNormalizeInconsistentStore(t *testing.T) {
	r := rand.New(rand.NewSource(12))
	utxoCommit := New()
	for n := 0; n < maxLeafSize+1; n++ {
		element := randomElement(r)
		element[0] = 0x3d
		utxoCommit.Update(element, false)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("normalize against an empty store did not abort")
		}
	}()
	_ = utxoCommit.Normalize(model.NewInMemoryUTXODataSet())
}

// TestNormalizeNegativeCount checks that normalization refuses an engine
// that carries a negative delta.
func TestNormalizeNegativeCount(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	set := model.NewInMemoryUTXODataSet()
	utxoCommit := New()

	elements := make([][]byte, maxLeafSize+1)
	for n := range elements {
		elements[n] = randomElement(r)
		elements[n][0] = 0x3d
		set.Add(elements[n])
		utxoCommit.Update(elements[n], false)
	}
	// Drive the queued leaf's count below zero before normalizing.
	for _, element := range elements {
		utxoCommit.Update(element, true)
	}
	for n := 0; n < 10; n++ {
		element := randomElement(r)
		element[0] = 0x3d
		utxoCommit.Update(element, true)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("normalize accepted a negative multiset")
		}
	}()
	_ = utxoCommit.Normalize(set)
}
