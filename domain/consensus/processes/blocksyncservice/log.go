package blocksyncservice

import (
	"github.com/kaspanet/chainsyncd/infrastructure/logger"
	"github.com/kaspanet/chainsyncd/util/panics"
)

var log = logger.RegisterSubSystem("BSYN")
var spawn = panics.GoroutineWrapperFunc(log)
