// Package main is the entry point for the hexarch binary.
package main

import (
	"os"

	"hexarch/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
