// Command tpcf computes two-point correlation functions of 3D point
// catalogues.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tpcf: %v\n", err)
		os.Exit(1)
	}
}
