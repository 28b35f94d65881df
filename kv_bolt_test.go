package kronroe

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestBoltKV(t *testing.T) *boltKV {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	kv, err := openBoltKV(path)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestBoltKVPutGetDelete(t *testing.T) {
	kv := openTestBoltKV(t)

	err := kv.Update(func(tx kvWriter) error {
		return tx.Put(tableFacts, "a:b:1", []byte("hello"))
	})
	require.NoError(t, err)

	var got []byte
	var found bool
	err = kv.View(func(tx kvReader) error {
		var err error
		got, found, err = tx.Get(tableFacts, "a:b:1")
		return err
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hello", string(got))

	err = kv.Update(func(tx kvWriter) error {
		return tx.Delete(tableFacts, "a:b:1")
	})
	require.NoError(t, err)

	err = kv.View(func(tx kvReader) error {
		_, found, err := tx.Get(tableFacts, "a:b:1")
		assert.False(t, found)
		return err
	})
	require.NoError(t, err)
}

func TestBoltKVScanPrefix(t *testing.T) {
	kv := openTestBoltKV(t)
	err := kv.Update(func(tx kvWriter) error {
		for _, k := range []string{"a:p:1", "a:p:2", "a:q:1", "b:p:1"} {
			if err := tx.Put(tableFacts, k, []byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var keys []string
	err = kv.View(func(tx kvReader) error {
		return tx.ScanPrefix(tableFacts, "a:p:", func(k string, v []byte) bool {
			keys = append(keys, k)
			return true
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:p:1", "a:p:2"}, keys)
}

func TestBoltKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	kv1, err := openBoltKV(path)
	require.NoError(t, err)
	require.NoError(t, kv1.Update(func(tx kvWriter) error {
		return tx.Put(tableFacts, "k", []byte("v"))
	}))
	require.NoError(t, kv1.Close())

	kv2, err := openBoltKV(path)
	require.NoError(t, err)
	defer kv2.Close()

	err = kv2.View(func(tx kvReader) error {
		got, found, err := tx.Get(tableFacts, "k")
		assert.True(t, found)
		assert.Equal(t, "v", string(got))
		return err
	})
	require.NoError(t, err)
}
