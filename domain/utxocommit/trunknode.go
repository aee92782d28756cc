package utxocommit

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/utxocommit/utxocommitd/domain/utxocommit/model"
	"github.com/utxocommit/utxocommitd/domain/utxocommit/utils/hashes"
	"github.com/utxocommit/utxocommitd/domain/utxocommit/utils/multiset"
)

const (
	branchCount = 16
	branchBits  = 4

	// maxLeafSize is the largest element population a leaf may hold after
	// normalization. Branches below the trunk root must hold more.
	maxLeafSize = 2000

	minElementSize = 4
)

// getBranch returns the branch number of an element at the given depth.
// Nibble 0 is the high nibble of byte 0 and selects the trunk; a trunk-
// internal descent at depth d uses nibble d.
func getBranch(depth uint32, element []byte) uint32 {
	return uint32(element[depth/2]>>(4*(1-depth%2))) & 0xf
}

// normalizeItem is a reference to a node queued for normalization. It
// includes the bit depth at which the node sits and enough bytes to
// determine its prefix.
type normalizeItem struct {
	nodeIndex uint32
	bits      uint32
	prefix    []byte
}

// node is the storage for both branch and leaf nodes. data indexes into the
// owning trunk's branches or multisets arena, depending on isBranch.
//
// count is signed: removing elements that were never added is legal (the
// trunk then carries a signed multiset) and drives counts below zero.
type node struct {
	count    int64
	data     uint32
	isBranch bool
}

// trunkNode is one of the 16 children of the commitment root.
//
// Trunks are specialized nodes that own all their descendants, which are
// held pointer-free in three append-only arenas, and provide locking. This
// lets the engine update its tree thread safe, with up to 16 threads working
// in parallel without the overhead of per-node locking throughout the tree.
type trunkNode struct {
	lock sync.Mutex

	// nodes stores every child node, both branch and leaf. nodes[0] is
	// this trunk's root.
	nodes []node

	// branches is the extra storage for branch nodes; accessed by
	// node.data.
	branches [][branchCount]uint32

	// multisets is the extra storage for leaf nodes; accessed by
	// node.data.
	multisets []multiset.MultiSet

	// denormalized is the FIFO queue of nodes that need normalization.
	denormalized []normalizeItem
}

func newTrunkNode() *trunkNode {
	// Initially the trunk is a leaf node (index 0) pointing to an empty
	// multiset (index 0).
	trunk := &trunkNode{}
	trunk.nodes = append(trunk.nodes, node{count: 0, data: 0})
	trunk.multisets = append(trunk.multisets, multiset.New())
	return trunk
}

// update adds or removes an element. It assumes the element belongs to this
// trunk.
func (tn *trunkNode) update(element []byte, remove bool) {
	tn.lock.Lock()
	defer tn.lock.Unlock()

	// Loop into the tree; no need for recursion.
	delta := int64(1)
	if remove {
		delta = -1
	}
	nodeIndex := uint32(0)
	for depth := uint32(1); ; depth++ {
		current := &tn.nodes[nodeIndex]
		current.count += delta

		if !current.isBranch {
			if current.count > maxLeafSize {
				tn.enqueueDenormalized(nodeIndex, depth*branchBits, element)
			}
			tn.multisets[current.data].Update(element, remove)
			return
		}

		// All branches but the trunk root can't have maxLeafSize
		// elements or less.
		if current.count <= maxLeafSize && nodeIndex != 0 {
			tn.enqueueDenormalized(nodeIndex, depth*branchBits, element)
		}
		nodeIndex = tn.branches[current.data][getBranch(depth, element)]
	}
}

func (tn *trunkNode) enqueueDenormalized(nodeIndex uint32, bits uint32, prefix []byte) {
	prefixClone := make([]byte, len(prefix))
	copy(prefixClone, prefix)
	tn.denormalized = append(tn.denormalized, normalizeItem{
		nodeIndex: nodeIndex,
		bits:      bits,
		prefix:    prefixClone,
	})
}

// normalize shrinks every branch holding maxLeafSize elements or less into a
// leaf, and expands every leaf holding more than maxLeafSize elements into a
// branch. The dataset must provide access to the whole set, on which range
// queries are issued for expansion.
func (tn *trunkNode) normalize(set model.UTXODataSet) error {
	tn.lock.Lock()
	defer tn.lock.Unlock()

	for len(tn.denormalized) > 0 {
		item := tn.denormalized[0]
		tn.denormalized = tn.denormalized[1:]
		idx := item.nodeIndex

		if tn.nodes[idx].count < 0 {
			// A split would have to re-read the store, and the
			// store cannot hold negative rows. Callers must not
			// normalize an engine that carries a negative delta.
			log.Criticalf("Normalize on a trunk with negative count %d at node %d",
				tn.nodes[idx].count, idx)
			panic(errors.Errorf("normalize is undefined on negative multisets"))
		}

		if tn.nodes[idx].isBranch && tn.nodes[idx].count <= maxLeafSize {
			tn.collapseNode(idx)
		} else if !tn.nodes[idx].isBranch && tn.nodes[idx].count > maxLeafSize {
			err := tn.splitAndRefill(set, &item)
			if err != nil {
				return err
			}
		}
		// Neither condition holds anymore: the item is stale, drop it.
	}
	return nil
}

// collapseNode combines all multisets below a branch into a fresh leaf
// multiset. The subtree's nodes are left in place, orphaned; normalization
// churn is too rare for reclaiming them to be worth free-list complexity.
func (tn *trunkNode) collapseNode(nodeIndex uint32) {
	combined := multiset.New()
	tn.sumAllLeaves(&combined, nodeIndex)
	tn.nodes[nodeIndex].data = uint32(len(tn.multisets))
	tn.nodes[nodeIndex].isBranch = false
	tn.multisets = append(tn.multisets, combined)
}

// splitAndRefill splits an overfull leaf into 16 child leaves and re-adds
// its elements from the dataset, partitioned by their nibble at the split
// depth. The children are enqueued afterwards, as they might also need
// normalization.
func (tn *trunkNode) splitAndRefill(set model.UTXODataSet, item *normalizeItem) error {
	idx := item.nodeIndex
	originalCount := tn.nodes[idx].count

	// Clear and split. The original multiset index is taken over by the
	// first new child, so it is reset rather than abandoned.
	tn.multisets[tn.nodes[idx].data] = multiset.New()
	tn.splitNode(idx)

	// Re-add the data to the new leaves. The children are still at the
	// end of the nodes arena.
	firstChild := uint32(len(tn.nodes)) - branchCount
	depth := item.bits / branchBits
	added := int64(0)

	cursor, err := set.Range(item.prefix, item.bits)
	if err != nil {
		return errors.Wrapf(err, "range query for prefix of %d bits failed", item.bits)
	}
	for {
		element, err := cursor.Next()
		if err != nil {
			return errors.Wrap(err, "dataset cursor failed during split")
		}
		if element == nil {
			break
		}

		childIndex := firstChild + getBranch(depth, element)
		tn.nodes[childIndex].count++
		added++
		tn.multisets[tn.nodes[childIndex].data].Add(element)
	}
	if added != originalCount {
		log.Criticalf("Dataset diverged from the tree: split of node %d expected %d elements, range produced %d",
			idx, originalCount, added)
		panic(errors.Errorf("utxo dataset inconsistent with commitment tree"))
	}

	for n := uint32(0); n < branchCount; n++ {
		// Replace the nibble in the prefix to identify the child
		// being queued.
		if depth%2 == 0 {
			item.prefix[depth/2] = item.prefix[depth/2]&0x0f | byte(n)<<4
		} else {
			item.prefix[depth/2] = item.prefix[depth/2]&0xf0 | byte(n)
		}
		tn.enqueueDenormalized(firstChild+n, depth*branchBits+branchBits, item.prefix)
	}
	return nil
}

// splitNode splits the given leaf node into branchCount leaves under a new
// branch record.
func (tn *trunkNode) splitNode(nodeIndex uint32) {
	if tn.nodes[nodeIndex].isBranch {
		panic(errors.Errorf("splitNode called on branch node %d", nodeIndex))
	}

	// Add 1 leaf node that takes over the multiset data of this node,
	// and 15 leaf nodes with new multisets.
	tn.nodes = append(tn.nodes, node{count: 0, data: tn.nodes[nodeIndex].data})
	for n := 1; n < branchCount; n++ {
		tn.nodes = append(tn.nodes, node{count: 0, data: uint32(len(tn.multisets))})
		tn.multisets = append(tn.multisets, multiset.New())
	}

	// Now this node becomes a branch node.
	var branch [branchCount]uint32
	for n := 0; n < branchCount; n++ {
		branch[n] = uint32(len(tn.nodes)) - branchCount + uint32(n)
	}
	tn.nodes[nodeIndex].data = uint32(len(tn.branches))
	tn.nodes[nodeIndex].isBranch = true
	tn.branches = append(tn.branches, branch)
}

// setCapacity pre-shapes the tree by pre-splitting branches, to reduce the
// number of normalizations needed during bulk load. Must only be called on
// empty leaves.
func (tn *trunkNode) setCapacity(estCount uint64, nodeIndex uint32) {
	if tn.nodes[nodeIndex].isBranch || tn.nodes[nodeIndex].count != 0 {
		panic(errors.Errorf("setCapacity called on non-empty node %d", nodeIndex))
	}

	// Use some margin, as shrinking is cheaper than growing.
	if estCount+estCount/2 < maxLeafSize {
		return
	}

	tn.splitNode(nodeIndex)

	// Also estimate the newly created child nodes.
	branchIndex := tn.nodes[nodeIndex].data
	for n := 0; n < branchCount; n++ {
		tn.setCapacity(estCount/branchCount, tn.branches[branchIndex][n])
	}
}

// hash writes the 32-byte hash of a node into the writer; recursive. A leaf
// contributes its finalized multiset digest; a branch contributes the double
// sha256 of its 16 children's hashes in nibble order.
func (tn *trunkNode) hash(writer *hashes.DoubleHashWriter, nodeIndex uint32) {
	if tn.nodes[nodeIndex].isBranch {
		branchWriter := hashes.NewDoubleHashWriter()
		for _, childNode := range tn.branches[tn.nodes[nodeIndex].data] {
			tn.hash(branchWriter, childNode)
		}
		writer.InfallibleWrite(branchWriter.Finalize().ByteSlice())
	} else {
		writer.InfallibleWrite(tn.multisets[tn.nodes[nodeIndex].data].Hash().ByteSlice())
	}
}

// sumAllLeaves combines the multisets of all leaf descendants of a node into
// the given multiset.
func (tn *trunkNode) sumAllLeaves(combined *multiset.MultiSet, nodeIndex uint32) {
	if tn.nodes[nodeIndex].isBranch {
		for _, childNode := range tn.branches[tn.nodes[nodeIndex].data] {
			tn.sumAllLeaves(combined, childNode)
		}
	} else {
		combined.Combine(&tn.multisets[tn.nodes[nodeIndex].data])
	}
}

// stats returns the trunk's arena sizes.
func (tn *trunkNode) stats() TrunkStats {
	tn.lock.Lock()
	defer tn.lock.Unlock()
	return TrunkStats{
		Nodes:     len(tn.nodes),
		Branches:  len(tn.branches),
		Multisets: len(tn.multisets),
		Queued:    len(tn.denormalized),
	}
}
