package ldb

import (
	"github.com/utxocommit/utxocommitd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("LVDB")
