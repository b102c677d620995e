// Command tso-leasectl is the control client for a tso-lease replica.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/tso-lease/cmd/tso-leasectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
