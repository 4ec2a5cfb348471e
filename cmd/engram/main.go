// Command engram is a CLI over the dual-store memory engine: store,
// search and delete memories, ingest and rebuild documents, and repair
// vector drift.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
