// Command duesctl runs operator tasks against the dues store: overdue sweeps,
// periodic charge generation, agreement builds and transaction review.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
