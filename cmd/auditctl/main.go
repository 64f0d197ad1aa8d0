// Command auditctl is the operator tool for stored profile audits: import rows written
// by the automation, inspect reports and reveal timelines, list and export results.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
