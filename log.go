package main

import (
	"github.com/forgenet/forged/logger"
)

var log = logger.RegisterSubSystem("FRGD")
