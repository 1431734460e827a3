package database

import (
	"bytes"
	"testing"
)

func TestBucketPath(t *testing.T) {
	tests := []struct {
		bucketByteSlices [][]byte
		expectedPath     []byte
	}{
		{
			bucketByteSlices: [][]byte{[]byte("hello")},
			expectedPath:     []byte("hello/"),
		},
		{
			bucketByteSlices: [][]byte{[]byte("hello"), []byte("world")},
			expectedPath:     []byte("hello/world/"),
		},
	}

	for _, test := range tests {
		// Build a result using the MakeBucket function alone
		resultKey := MakeBucket(test.bucketByteSlices...).Path()
		if !bytes.Equal(resultKey, test.expectedPath) {
			t.Errorf("TestBucketPath: got wrong path using MakeBucket. "+
				"Want: %s, got: %s", string(test.expectedPath), string(resultKey))
		}

		// Build a result using sub-Bucket calls
		bucket := MakeBucket()
		for _, bucketBytes := range test.bucketByteSlices {
			bucket = bucket.Bucket(bucketBytes)
		}
		resultKey = bucket.Path()
		if !bytes.Equal(resultKey, test.expectedPath) {
			t.Errorf("TestBucketPath: got wrong path using sub-Bucket "+
				"calls. Want: %s, got: %s", string(test.expectedPath), string(resultKey))
		}
	}
}

func TestBucketKey(t *testing.T) {
	bucket := MakeBucket([]byte("blocks"), []byte("by-height"))
	key := bucket.Key([]byte{0x01, 0x02})

	expected := append([]byte("blocks/by-height/"), 0x01, 0x02)
	if !bytes.Equal(key.Bytes(), expected) {
		t.Errorf("TestBucketKey: wrong key bytes. Want: %x, got: %x", expected, key.Bytes())
	}
	if key.Bucket() != bucket {
		t.Errorf("TestBucketKey: Bucket returned a different bucket")
	}
	if !bytes.Equal(key.Suffix(), []byte{0x01, 0x02}) {
		t.Errorf("TestBucketKey: wrong suffix %x", key.Suffix())
	}
}
