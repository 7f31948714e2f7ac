// Command planforge runs PDDL planning problems through external solvers,
// from the command line or as a service.
package main

import (
	"context"
	"fmt"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "planforge:", err)
		os.Exit(1)
	}
}
