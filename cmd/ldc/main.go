// Command ldc evaluates linked-data computation documents from the
// command line: eval, query, sign, verify, and validate.
package main

import (
	"os"

	"github.com/roach88/ldc/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(cli.GetExitCode(err))
	}
}
