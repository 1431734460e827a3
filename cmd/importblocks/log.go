package main

import (
	"github.com/kaspanet/chainsyncd/infrastructure/logger"
	"github.com/kaspanet/chainsyncd/util/panics"
)

var (
	log   = logger.RegisterSubSystem("IMPB")
	spawn = panics.GoroutineWrapperFunc(log)
)
