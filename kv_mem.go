package kronroe

import (
	"strings"
	"sync"

	"github.com/google/btree"
)

// memEntry is a single key/value pair stored in a memKV tree, ordered by
// Key for btree.Less.
type memEntry struct {
	Key   string
	Value []byte
}

func (e memEntry) Less(other btree.Item) bool {
	return e.Key < other.(memEntry).Key
}

// memKV implements kv entirely in memory on top of github.com/google/btree,
// an in-memory copy-on-write B-tree. A single sync.RWMutex emulates bbolt's
// single-writer/many-readers discipline, since google/btree itself has no
// notion of transactions or snapshots. Used by OpenInMemory — browser
// sandboxes, tests, and any host without a writable filesystem.
type memKV struct {
	mu    sync.RWMutex
	trees map[Table]*btree.BTree
}

func openMemKV() *memKV {
	trees := make(map[Table]*btree.BTree, len(allTables))
	for _, t := range allTables {
		trees[t] = btree.New(32)
	}
	return &memKV{trees: trees}
}

func (k *memKV) View(fn func(tx kvReader) error) error {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return fn(&memTx{kv: k})
}

func (k *memKV) Update(fn func(tx kvWriter) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return fn(&memTx{kv: k})
}

func (k *memKV) Close() error { return nil }

// memTx is a thin view over memKV valid only for the duration of the
// enclosing View/Update call, which already holds the appropriate lock.
type memTx struct {
	kv *memKV
}

func (t *memTx) Get(table Table, key string) ([]byte, bool, error) {
	tree, ok := t.kv.trees[table]
	if !ok {
		return nil, false, storageErr("Get", errUnknownTable(table))
	}
	item := tree.Get(memEntry{Key: key})
	if item == nil {
		return nil, false, nil
	}
	e := item.(memEntry)
	owned := make([]byte, len(e.Value))
	copy(owned, e.Value)
	return owned, true, nil
}

func (t *memTx) ScanPrefix(table Table, prefix string, fn func(key string, value []byte) bool) error {
	tree, ok := t.kv.trees[table]
	if !ok {
		return storageErr("ScanPrefix", errUnknownTable(table))
	}
	var iterErr error
	tree.AscendGreaterOrEqual(memEntry{Key: prefix}, func(item btree.Item) bool {
		e := item.(memEntry)
		if !strings.HasPrefix(e.Key, prefix) {
			return false
		}
		owned := make([]byte, len(e.Value))
		copy(owned, e.Value)
		return fn(e.Key, owned)
	})
	return iterErr
}

func (t *memTx) Put(table Table, key string, value []byte) error {
	tree, ok := t.kv.trees[table]
	if !ok {
		return storageErr("Put", errUnknownTable(table))
	}
	owned := make([]byte, len(value))
	copy(owned, value)
	tree.ReplaceOrInsert(memEntry{Key: key, Value: owned})
	return nil
}

func (t *memTx) Delete(table Table, key string) error {
	tree, ok := t.kv.trees[table]
	if !ok {
		return storageErr("Delete", errUnknownTable(table))
	}
	tree.Delete(memEntry{Key: key})
	return nil
}

func errUnknownTable(t Table) error {
	return &tableError{table: t}
}

type tableError struct{ table Table }

func (e *tableError) Error() string { return "unknown table \"" + string(e.table) + "\"" }
