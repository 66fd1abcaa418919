package main

import (
	"os"

	"github.com/alderglen/stevedore/src/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
