package delegates

import (
	"github.com/forgenet/forged/logger"
)

var log = logger.RegisterSubSystem("DLGT")
