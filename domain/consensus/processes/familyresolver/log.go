package familyresolver

import "github.com/kaspanet/chainsyncd/infrastructure/logger"

var log = logger.RegisterSubSystem("FMLY")
