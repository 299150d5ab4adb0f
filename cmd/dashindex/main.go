package main

import (
	"os"

	"dashindex/cmd/dashindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
