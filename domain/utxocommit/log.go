package utxocommit

import (
	"github.com/utxocommit/utxocommitd/infrastructure/logger"
	"github.com/utxocommit/utxocommitd/util/panics"
)

var log = logger.RegisterSubSystem("UTXC")
var spawn = panics.GoroutineWrapperFunc(log)
