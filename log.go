package main

import (
	"github.com/kaspanet/chainsyncd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CSYD")
