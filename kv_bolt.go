package kronroe

import (
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"
)

// boltKV implements kv on a single bbolt file. bbolt is itself an embedded,
// single-writer, copy-on-write B+tree with named buckets and byte-ordered
// keys, so this adapter is a thin wrapper rather than a reimplementation —
// grounded on cuemby-warren's pkg/storage/boltdb.go bucket-per-table layout.
type boltKV struct {
	db *bolt.DB
}

func openBoltKV(path string) (*boltKV, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, storageErr("Open", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, t := range allTables {
			if _, err := tx.CreateBucketIfNotExists([]byte(t)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, storageErr("Open", err)
	}
	return &boltKV{db: db}, nil
}

func (k *boltKV) View(fn func(tx kvReader) error) error {
	err := k.db.View(func(btx *bolt.Tx) error {
		return fn(&boltTx{btx: btx})
	})
	if err != nil {
		return wrapBoltErr("View", err)
	}
	return nil
}

func (k *boltKV) Update(fn func(tx kvWriter) error) error {
	err := k.db.Update(func(btx *bolt.Tx) error {
		return fn(&boltTx{btx: btx})
	})
	if err != nil {
		return wrapBoltErr("Update", err)
	}
	return nil
}

func (k *boltKV) Close() error {
	if err := k.db.Close(); err != nil {
		return storageErr("Close", err)
	}
	return nil
}

// wrapBoltErr passes already-typed *Error values through unchanged (they
// were produced by one of our callbacks) and wraps anything else (bbolt's
// own errors) as storage errors.
func wrapBoltErr(op string, err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return storageErr(op, err)
}

// boltTx adapts a single *bolt.Tx (read-only or read-write) to kvReader /
// kvWriter. bbolt values are only valid for the lifetime of the
// transaction, so Get and ScanPrefix always return owned copies — the
// "borrowed table handle" discipline the spec's Design Notes call for.
type boltTx struct {
	btx *bolt.Tx
}

func (t *boltTx) Get(table Table, key string) ([]byte, bool, error) {
	b := t.btx.Bucket([]byte(table))
	if b == nil {
		return nil, false, storageErr("Get", fmt.Errorf("unknown table %q", table))
	}
	v := b.Get([]byte(key))
	if v == nil {
		return nil, false, nil
	}
	owned := make([]byte, len(v))
	copy(owned, v)
	return owned, true, nil
}

func (t *boltTx) ScanPrefix(table Table, prefix string, fn func(key string, value []byte) bool) error {
	b := t.btx.Bucket([]byte(table))
	if b == nil {
		return storageErr("ScanPrefix", fmt.Errorf("unknown table %q", table))
	}
	c := b.Cursor()
	p := []byte(prefix)
	for k, v := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
		owned := make([]byte, len(v))
		copy(owned, v)
		if !fn(string(k), owned) {
			break
		}
	}
	return nil
}

func (t *boltTx) Put(table Table, key string, value []byte) error {
	b := t.btx.Bucket([]byte(table))
	if b == nil {
		return storageErr("Put", fmt.Errorf("unknown table %q", table))
	}
	if err := b.Put([]byte(key), value); err != nil {
		return storageErr("Put", err)
	}
	return nil
}

func (t *boltTx) Delete(table Table, key string) error {
	b := t.btx.Bucket([]byte(table))
	if b == nil {
		return storageErr("Delete", fmt.Errorf("unknown table %q", table))
	}
	if err := b.Delete([]byte(key)); err != nil {
		return storageErr("Delete", err)
	}
	return nil
}
