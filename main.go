package main

import (
	"fmt"
	"os"

	"postr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "postr: %v\n", err)
		os.Exit(1)
	}
}
