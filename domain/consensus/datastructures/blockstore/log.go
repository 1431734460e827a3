package blockstore

import "github.com/kaspanet/chainsyncd/infrastructure/logger"

var log = logger.RegisterSubSystem("BSTR")
