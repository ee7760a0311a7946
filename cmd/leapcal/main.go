// Command leapcal derives, validates and publishes the extraordinary-day
// table.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/leapcal/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
