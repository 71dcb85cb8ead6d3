// Command jsondocs manages JSON document repositories.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/jsondocs/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
