// Package main provides the entry point for the filemonitor CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/filemonitor/cmd/filemonitor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
