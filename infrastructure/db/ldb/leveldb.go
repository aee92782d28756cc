package ldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// elementStoreOptions tunes leveldb for the dataset workload: bulk
// sequential scans over fixed-format keys, with little point-lookup
// locality worth caching for.
var elementStoreOptions = opt.Options{
	Compression:            opt.NoCompression,
	BlockCacheCapacity:     64 * opt.MiB,
	WriteBuffer:            32 * opt.MiB,
	DisableSeeksCompaction: true,
}

// LevelDB wraps the leveldb instance backing element datasets, exposing
// only the narrow surface the datasets consume.
type LevelDB struct {
	ldb *leveldb.DB
}

// NewLevelDB opens the leveldb under the given path, creating it when it
// does not exist yet. A database left corrupted by a crash is recovered
// before use.
func NewLevelDB(path string) (*LevelDB, error) {
	ldb, err := leveldb.OpenFile(path, &elementStoreOptions)
	if _, corrupted := err.(*ldbErrors.ErrCorrupted); corrupted {
		log.Warnf("Recovering the corrupted leveldb at %s: %s", path, err)
		ldb, err = leveldb.RecoverFile(path, &elementStoreOptions)
		if err == nil {
			log.Warnf("Recovered the leveldb at %s", path)
		}
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &LevelDB{ldb: ldb}, nil
}

// Close releases the underlying leveldb handle.
func (db *LevelDB) Close() error {
	return errors.WithStack(db.ldb.Close())
}

// Has returns whether the given key is present.
func (db *LevelDB) Has(key []byte) (bool, error) {
	has, err := db.ldb.Has(key, nil)
	return has, errors.WithStack(err)
}

// Get returns the value stored under the given key, or nil when the key is
// absent.
func (db *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := db.ldb.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	return value, errors.WithStack(err)
}

// Put stores the value under the given key, replacing any previous one.
func (db *LevelDB) Put(key []byte, value []byte) error {
	return errors.WithStack(db.ldb.Put(key, value, nil))
}

// Delete removes the given key. Deleting an absent key is not an error.
func (db *LevelDB) Delete(key []byte) error {
	return errors.WithStack(db.ldb.Delete(key, nil))
}

// NewIterator returns an iterator over the given key range.
func (db *LevelDB) NewIterator(slice *util.Range) iterator.Iterator {
	return db.ldb.NewIterator(slice, nil)
}
