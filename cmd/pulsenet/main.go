// Command pulsenet simulates pulse networks from the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/pulsenet/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	err := root.Execute()
	if err == nil {
		return
	}

	// Commands report their own failures. Anything else is a usage error
	// that cobra left unprinted.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
