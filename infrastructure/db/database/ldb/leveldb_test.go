package ldb

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kaspanet/chainsyncd/infrastructure/db/database"
)

func TestLevelDBSanity(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestLevelDBSanity")
	defer teardownFunc()

	key := database.MakeBucket([]byte("blocks")).Key([]byte("hash"))
	_, err := ldb.Get(key)
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestLevelDBSanity: Get of a missing key returned wrong error: %v", err)
	}

	putData := []byte("Hello world!")
	err = ldb.Put(key, putData)
	if err != nil {
		t.Fatalf("TestLevelDBSanity: Put returned unexpected error: %s", err)
	}
	getData, err := ldb.Get(key)
	if err != nil {
		t.Fatalf("TestLevelDBSanity: Get returned unexpected error: %s", err)
	}
	if !bytes.Equal(getData, putData) {
		t.Fatalf("TestLevelDBSanity: Get returned wrong data. Want: %s, got: %s",
			string(putData), string(getData))
	}

	err = ldb.Delete(key)
	if err != nil {
		t.Fatalf("TestLevelDBSanity: Delete returned unexpected error: %s", err)
	}
	exists, err := ldb.Has(key)
	if err != nil {
		t.Fatalf("TestLevelDBSanity: Has returned unexpected error: %s", err)
	}
	if exists {
		t.Fatalf("TestLevelDBSanity: Has unexpectedly found a deleted key")
	}
}

func TestLevelDBReopen(t *testing.T) {
	path := t.TempDir()
	key := database.MakeBucket([]byte("best")).Key(nil)

	ldb, err := NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("TestLevelDBReopen: NewLevelDB unexpectedly failed: %s", err)
	}
	err = ldb.Put(key, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("TestLevelDBReopen: Put unexpectedly failed: %s", err)
	}
	err = ldb.Close()
	if err != nil {
		t.Fatalf("TestLevelDBReopen: Close unexpectedly failed: %s", err)
	}

	ldb, err = NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("TestLevelDBReopen: NewLevelDB unexpectedly failed: %s", err)
	}
	defer ldb.Close()
	data, err := ldb.Get(key)
	if err != nil {
		t.Fatalf("TestLevelDBReopen: Get unexpectedly failed: %s", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Fatalf("TestLevelDBReopen: Get returned wrong data: %x", data)
	}
}

func TestLevelDBTransactionSanity(t *testing.T) {
	ldb, err := NewMemLevelDB()
	if err != nil {
		t.Fatalf("TestLevelDBTransactionSanity: NewMemLevelDB unexpectedly failed: %s", err)
	}
	defer ldb.Close()

	bucket := database.MakeBucket([]byte("tx"))
	committedKey := bucket.Key([]byte("committed"))
	rolledBackKey := bucket.Key([]byte("rolledback"))

	tx, err := ldb.Begin()
	if err != nil {
		t.Fatalf("TestLevelDBTransactionSanity: Begin unexpectedly failed: %s", err)
	}
	err = tx.Put(committedKey, []byte("value"))
	if err != nil {
		t.Fatalf("TestLevelDBTransactionSanity: Put unexpectedly failed: %s", err)
	}
	exists, err := ldb.Has(committedKey)
	if err != nil {
		t.Fatalf("TestLevelDBTransactionSanity: Has unexpectedly failed: %s", err)
	}
	if exists {
		t.Fatalf("TestLevelDBTransactionSanity: uncommitted data is visible outside the transaction")
	}
	err = tx.Commit()
	if err != nil {
		t.Fatalf("TestLevelDBTransactionSanity: Commit unexpectedly failed: %s", err)
	}
	exists, err = ldb.Has(committedKey)
	if err != nil || !exists {
		t.Fatalf("TestLevelDBTransactionSanity: committed data is not visible: %v", err)
	}

	tx, err = ldb.Begin()
	if err != nil {
		t.Fatalf("TestLevelDBTransactionSanity: Begin unexpectedly failed: %s", err)
	}
	err = tx.Put(rolledBackKey, []byte("value"))
	if err != nil {
		t.Fatalf("TestLevelDBTransactionSanity: Put unexpectedly failed: %s", err)
	}
	err = tx.Rollback()
	if err != nil {
		t.Fatalf("TestLevelDBTransactionSanity: Rollback unexpectedly failed: %s", err)
	}
	exists, err = ldb.Has(rolledBackKey)
	if err != nil || exists {
		t.Fatalf("TestLevelDBTransactionSanity: rolled back data is visible: %v", err)
	}

	err = tx.RollbackUnlessClosed()
	if err != nil {
		t.Fatalf("TestLevelDBTransactionSanity: RollbackUnlessClosed unexpectedly failed: %s", err)
	}
	err = tx.Put(rolledBackKey, []byte("value"))
	if err == nil || !strings.Contains(err.Error(), "closed transaction") {
		t.Fatalf("TestLevelDBTransactionSanity: Put on a closed transaction returned wrong error: %v", err)
	}
}

func TestLevelDBCompact(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestLevelDBCompact")
	defer teardownFunc()

	bucket := database.MakeBucket([]byte("blocks"))
	for i := byte(0); i < 100; i++ {
		err := ldb.Put(bucket.Key([]byte{i}), bytes.Repeat([]byte{i}, 64))
		if err != nil {
			t.Fatalf("TestLevelDBCompact: Put returned unexpected error: %s", err)
		}
	}
	for i := byte(0); i < 100; i += 2 {
		err := ldb.Delete(bucket.Key([]byte{i}))
		if err != nil {
			t.Fatalf("TestLevelDBCompact: Delete returned unexpected error: %s", err)
		}
	}

	err := ldb.Compact()
	if err != nil {
		t.Fatalf("TestLevelDBCompact: Compact returned unexpected error: %s", err)
	}

	for i := byte(0); i < 100; i++ {
		exists, err := ldb.Has(bucket.Key([]byte{i}))
		if err != nil {
			t.Fatalf("TestLevelDBCompact: Has returned unexpected error: %s", err)
		}
		if exists != (i%2 == 1) {
			t.Fatalf("TestLevelDBCompact: key %d exists=%t after compaction", i, exists)
		}
	}
}
