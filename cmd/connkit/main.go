// Package main is the connkit command-line entry point.
package main

import (
	"os"

	"github.com/connkit/connkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
