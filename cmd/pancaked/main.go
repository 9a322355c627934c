package main

import (
	"os"

	"cosmossdk.io/log"

	"github.com/openalpha/pancake/cmd/pancaked/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		log.NewLogger(os.Stderr).Error("failure when running pancaked", "err", err)
		os.Exit(1)
	}
}
