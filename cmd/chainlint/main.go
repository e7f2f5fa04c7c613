// Package main provides the chainlint command.
package main

import (
	"os"

	"github.com/leapstack-labs/chainlint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
