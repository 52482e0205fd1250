package main

import (
	"os"

	"github.com/solatis/kitkeeper/cmd/kitkeeper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
