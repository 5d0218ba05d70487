// Command structkit publishes documents into blob storage, records them in
// a SQL ledger and browses what has been stored.
package main

import (
	"os"
)

var exitFunc = os.Exit

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		exitFunc(1)
	}
}
