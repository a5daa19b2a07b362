// Package main is the entry point for the staysearch CLI.
package main

import (
	"os"

	"github.com/jmylchreest/staysearch/cmd/staysearch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
