// Command ignitedb is a small operational CLI for an ignitedb data
// directory.
package main

import (
	"fmt"
	"os"

	"github.com/ignitedb/ignitedb/cmd/ignitedb/commands"
)

var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
