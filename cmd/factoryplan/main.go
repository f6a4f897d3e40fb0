// Command factoryplan recomputes, validates and stores factory network plans.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/factoryplan/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
