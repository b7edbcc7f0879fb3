package main

import (
	"fmt"
	"os"

	"github.com/forgenet/forged/config"
	"github.com/forgenet/forged/version"
)

// main wraps forgedMain so deferred cleanup in forgedMain runs before
// the exit code is set.
func main() {
	if err := forgedMain(); err != nil {
		os.Exit(1)
	}
}

func forgedMain() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	if cfg.ShowVersion {
		fmt.Printf("forged version %s\n", version.Version())
		return nil
	}

	return runNode(cfg)
}
