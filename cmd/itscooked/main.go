// Package main is the entry point for the itscooked CLI.
package main

import (
	"os"

	"github.com/jmylchreest/itscooked/cmd/itscooked/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
