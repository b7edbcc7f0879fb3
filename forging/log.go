package forging

import (
	"github.com/forgenet/forged/logger"
)

var log = logger.RegisterSubSystem("FORG")
