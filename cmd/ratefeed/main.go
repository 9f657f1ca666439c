package main

import (
	"os"

	"github.com/danquah/ratefeed/cmd/ratefeed/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
