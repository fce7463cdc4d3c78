// Command iocplan plans and executes annotation processing over a catalog.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/iocplan/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
