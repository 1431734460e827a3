package ldb

import "github.com/syndtr/goleveldb/leveldb/opt"

const mib = opt.MiB

// Options returns the leveldb options used when opening a database. It is a
// variable so tests can shrink the caches.
var Options = func() *opt.Options {
	return &opt.Options{
		Compression:            opt.NoCompression,
		BlockCacheCapacity:     64 * mib,
		WriteBuffer:            32 * mib,
		DisableSeeksCompaction: true,
	}
}
