// Package main provides the atelier CLI.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/atelier/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
