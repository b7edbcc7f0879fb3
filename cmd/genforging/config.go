package main

import (
	"github.com/jessevdk/go-flags"
)

type configFlags struct {
	Secret  string `long:"secret" description:"Existing forging secret to encrypt. A fresh one is generated when omitted"`
	Version int    `long:"scheme" description:"Encryption scheme version {0: aes-256-gcm, 1: xchacha20-poly1305}"`
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
