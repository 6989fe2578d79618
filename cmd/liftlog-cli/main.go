// Command liftlog-cli works the workout log from the terminal, operating
// on the same configured store as the server. Lifecycle commands target
// the open draft; report commands render the training history.
package main

import (
	"fmt"
	"os"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	app := newApp(&cliEnv{out: os.Stdout})
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
