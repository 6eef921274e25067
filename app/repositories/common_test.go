package repositories

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestEngine opens an in-memory engine that is closed with the test.
func setupTestEngine(t *testing.T) *BadgerEngine {
	engine, err := Open("", 0, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = engine.Close()
	})
	return engine
}

func TestGetNextID(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	defer db.Close()

	t.Run("first ID", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, PostSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, uint64(1), id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("sequential IDs", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			for i := uint64(2); i <= 5; i++ {
				id, err := getNextID(txn, PostSeqKey)
				assert.NoError(t, err)
				assert.Equal(t, i, id)
			}
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("different sequence keys", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			commentID, err := getNextID(txn, CommentSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, uint64(1), commentID, "Comment sequence should start from 1")
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("persistence", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, "test:seq")
			assert.NoError(t, err)
			assert.Equal(t, uint64(1), id)
			return nil
		})
		assert.NoError(t, err)

		// Second transaction should continue from last ID
		err = db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, "test:seq")
			assert.NoError(t, err)
			assert.Equal(t, uint64(2), id)
			return nil
		})
		assert.NoError(t, err)
	})
}

func TestKeysSortByID(t *testing.T) {
	assert.Less(t, string(postKey(9)), string(postKey(10)))
	assert.Less(t, string(commentKey(1, 99)), string(commentKey(1, 100)))
	assert.Less(t, string(commentKey(1, 100)), string(seekLast(commentPrefix(1))))
	assert.Less(t, string(seekLast(commentPrefix(1))), string(commentKey(2, 1)))
}

func TestMarshalEntity(t *testing.T) {
	type entity struct {
		Name string `json:"name"`
	}

	data, err := marshalEntity(entity{Name: "blabber"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"blabber"}`, string(data))

	var out entity
	require.NoError(t, unmarshalEntity(data, &out))
	assert.Equal(t, "blabber", out.Name)

	assert.Error(t, unmarshalEntity([]byte("{"), &out))
}
