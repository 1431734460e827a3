package consensus

import (
	"github.com/kaspanet/chainsyncd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CONS")
