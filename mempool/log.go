package mempool

import (
	"github.com/forgenet/forged/logger"
)

var log = logger.RegisterSubSystem("MEMP")
