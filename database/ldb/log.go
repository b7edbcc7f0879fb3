package ldb

import (
	"github.com/forgenet/forged/logger"
)

var log = logger.RegisterSubSystem("LVDB")
