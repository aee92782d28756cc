package ldb

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/utxocommit/utxocommitd/domain/utxocommit/model"
)

// countKeyPrefix prefixes the key holding the element count of a dataset
// bucket. Buckets must not start with it.
var countKeyPrefix = []byte("count/")

// UTXODataSet is a model.UTXODataSet over a leveldb instance. Elements are
// stored as keys under the dataset's bucket prefix, with empty values, so
// leveldb's key order is the ascending element order the engine requires.
//
// Writes are meant for loading and maintenance tooling; they are not safe
// for concurrent writers. Reads are safe to issue from multiple goroutines,
// but the store must not be written while a cursor is outstanding.
type UTXODataSet struct {
	db     *LevelDB
	bucket []byte
}

// NewUTXODataSet returns a dataset over the given bucket prefix of db. The
// bucket must be non-empty and must not start with the count key prefix.
func NewUTXODataSet(db *LevelDB, bucket []byte) *UTXODataSet {
	if len(bucket) == 0 || bytes.HasPrefix(bucket, countKeyPrefix) {
		panic(errors.Errorf("invalid dataset bucket %q", bucket))
	}
	bucketClone := make([]byte, len(bucket))
	copy(bucketClone, bucket)
	return &UTXODataSet{db: db, bucket: bucketClone}
}

func (ds *UTXODataSet) elementKey(element []byte) []byte {
	key := make([]byte, 0, len(ds.bucket)+len(element))
	key = append(key, ds.bucket...)
	return append(key, element...)
}

func (ds *UTXODataSet) countKey() []byte {
	key := make([]byte, 0, len(countKeyPrefix)+len(ds.bucket))
	key = append(key, countKeyPrefix...)
	return append(key, ds.bucket...)
}

func (ds *UTXODataSet) readCount() (uint64, error) {
	data, err := ds.db.Get(ds.countKey())
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, nil
	}
	return binary.LittleEndian.Uint64(data), nil
}

func (ds *UTXODataSet) writeCount(count uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], count)
	return ds.db.Put(ds.countKey(), buf[:])
}

// Put stores an element and maintains the bucket's element count.
func (ds *UTXODataSet) Put(element []byte) error {
	exists, err := ds.db.Has(ds.elementKey(element))
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = ds.db.Put(ds.elementKey(element), nil)
	if err != nil {
		return err
	}
	count, err := ds.readCount()
	if err != nil {
		return err
	}
	return ds.writeCount(count + 1)
}

// Delete removes an element and maintains the bucket's element count.
func (ds *UTXODataSet) Delete(element []byte) error {
	exists, err := ds.db.Has(ds.elementKey(element))
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	err = ds.db.Delete(ds.elementKey(element))
	if err != nil {
		return err
	}
	count, err := ds.readCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return errors.Errorf("element count for the dataset bucket is already zero")
	}
	return ds.writeCount(count - 1)
}

// Size returns the maintained element count of the bucket.
func (ds *UTXODataSet) Size() uint64 {
	count, err := ds.readCount()
	if err != nil {
		log.Warnf("Failed to read the dataset element count: %s", err)
		return 0
	}
	return count
}

// Range returns a cursor over every stored element matching the given bit
// prefix, in ascending order.
func (ds *UTXODataSet) Range(prefix []byte, bits uint32) (model.UTXODataSetCursor, error) {
	start, limit := model.RangeBounds(prefix, bits)

	keyRange := util.BytesPrefix(ds.bucket)
	startKey := make([]byte, 0, len(ds.bucket)+len(start))
	startKey = append(startKey, ds.bucket...)
	keyRange.Start = append(startKey, start...)
	if limit != nil {
		limitKey := make([]byte, 0, len(ds.bucket)+len(limit))
		limitKey = append(limitKey, ds.bucket...)
		keyRange.Limit = append(limitKey, limit...)
	}

	return &datasetCursor{
		iterator:     ds.db.NewIterator(keyRange),
		bucketLength: len(ds.bucket),
	}, nil
}

type datasetCursor struct {
	iterator     iterator.Iterator
	bucketLength int
	done         bool
}

func (c *datasetCursor) Next() ([]byte, error) {
	if c.done {
		return nil, nil
	}
	if !c.iterator.Next() {
		err := c.iterator.Error()
		c.iterator.Release()
		c.done = true
		return nil, errors.WithStack(err)
	}
	key := c.iterator.Key()
	element := make([]byte, len(key)-c.bucketLength)
	copy(element, key[c.bucketLength:])
	return element, nil
}
