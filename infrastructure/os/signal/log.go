package signal

import (
	"github.com/kaspanet/chainsyncd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("SIGN")
