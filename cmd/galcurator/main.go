// Command galcurator is the entry point for the galcurator CLI.
package main

import (
	"github.com/galcurator/galcurator/internal/cli"
	"github.com/galcurator/galcurator/internal/cmdutil"
)

func main() {
	if err := cli.Execute(); err != nil {
		cmdutil.Fatal(err)
	}
}
