package metrics

import "github.com/kaspanet/chainsyncd/infrastructure/logger"

var log = logger.RegisterSubSystem("MTRC")
