package blockchain

import (
	"github.com/forgenet/forged/logger"
)

var log = logger.RegisterSubSystem("CHAN")
