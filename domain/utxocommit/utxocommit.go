package utxocommit

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/utxocommit/utxocommitd/domain/utxocommit/model"
	"github.com/utxocommit/utxocommitd/domain/utxocommit/utils/hashes"
)

// UTXOCommit maintains an in-memory tree to quickly calculate and update the
// commitment hash of an evolving element set.
//
// Elements are fanned out over 16 trunks by their leading 4 bits. Each trunk
// owns its arenas and its lock, so updates on elements with different top
// nibbles never contend.
type UTXOCommit struct {
	trunkNodes [branchCount]*trunkNode
}

// TrunkStats describes the arena sizes of a single trunk.
type TrunkStats struct {
	Nodes     int
	Branches  int
	Multisets int
	Queued    int
}

// New returns an empty commitment engine.
func New() *UTXOCommit {
	uc := &UTXOCommit{}
	for n := 0; n < branchCount; n++ {
		uc.trunkNodes[n] = newTrunkNode()
	}
	return uc
}

// Update adds or removes an element from the tree.
//
// Thread safe: updates are serialized per trunk.
func (uc *UTXOCommit) Update(element []byte, remove bool) {
	if len(element) < minElementSize {
		panic(errors.Errorf("element of %d bytes is below the minimum of %d",
			len(element), minElementSize))
	}

	// Pass to the right trunk node.
	uc.trunkNodes[(element[0]>>4)&0xf].update(element, remove)
}

// Normalize ensures each branch below a trunk root holds more than
// maxLeafSize elements and each leaf holds maxLeafSize or less. The dataset
// is used to acquire the element data needed to split leaves.
//
// Thread safe with respect to Update. On a dataset error the affected trunk
// is left denormalized; the caller must retry from the same quiescent store
// state.
func (uc *UTXOCommit) Normalize(set model.UTXODataSet) error {
	for n := 0; n < branchCount; n++ {
		err := uc.trunkNodes[n].normalize(set)
		if err != nil {
			return err
		}
	}
	return nil
}

// InitialLoad loads all elements from the dataset, one worker per trunk,
// and leaves the tree normalized.
//
// Not thread safe; no other operation may run on the engine until it
// returns.
func (uc *UTXOCommit) InitialLoad(set model.UTXODataSet) error {
	onEnd := log.MeasureExecutionTime("UTXOCommit.InitialLoad")
	defer onEnd()

	log.Infof("Initial load of approximately %d elements", set.Size())

	var wg sync.WaitGroup
	workerErrors := make([]error, branchCount)
	for t := 0; t < branchCount; t++ {
		trunkNumber := t
		wg.Add(1)
		spawn("UTXOCommit.InitialLoad-worker", func() {
			defer wg.Done()
			workerErrors[trunkNumber] = uc.initialLoadTrunk(set, trunkNumber)
		})
	}
	wg.Wait()

	for t, err := range workerErrors {
		if err != nil {
			return errors.Wrapf(err, "initial load of trunk %x failed", t)
		}
	}

	for t, stats := range uc.Stats() {
		log.Debugf("Trunk %x: %d nodes, %d branches, %d multisets",
			t, stats.Nodes, stats.Branches, stats.Multisets)
	}
	log.Infof("Initial load done")
	return nil
}

// initialLoadTrunk pre-shapes one trunk, streams its prefix range into it
// and normalizes it.
func (uc *UTXOCommit) initialLoadTrunk(set model.UTXODataSet, trunkNumber int) error {
	trunk := uc.trunkNodes[trunkNumber]
	trunk.setCapacity(set.Size()/branchCount, 0)

	// Create a range for this trunk.
	prefix := []byte{byte(trunkNumber << 4)}
	cursor, err := set.Range(prefix, branchBits)
	if err != nil {
		return errors.Wrap(err, "trunk range query failed")
	}
	for {
		element, err := cursor.Next()
		if err != nil {
			return errors.Wrap(err, "dataset cursor failed")
		}
		if element == nil {
			break
		}
		trunk.update(element, false)
	}

	return trunk.normalize(set)
}

// Hash retrieves the commitment hash: the double sha256 of the 16 trunks'
// 32-byte root hashes in trunk order.
//
// Not thread safe, and meaningless while operations are in progress.
func (uc *UTXOCommit) Hash() *hashes.Hash {
	writer := hashes.NewDoubleHashWriter()
	for n := 0; n < branchCount; n++ {
		uc.trunkNodes[n].hash(writer, 0)
	}
	return writer.Finalize()
}

// Stats returns per-trunk arena statistics.
func (uc *UTXOCommit) Stats() [branchCount]TrunkStats {
	var stats [branchCount]TrunkStats
	for n := 0; n < branchCount; n++ {
		stats[n] = uc.trunkNodes[n].stats()
	}
	return stats
}
