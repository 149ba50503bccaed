// Package main is the issue-validator entry point.
package main

import (
	"fmt"
	"os"

	"github.com/nathantilsley/issue-validator/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
