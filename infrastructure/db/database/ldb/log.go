package ldb

import "github.com/kaspanet/chainsyncd/infrastructure/logger"

var log = logger.RegisterSubSystem("KSDB")
