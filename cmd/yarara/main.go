package main

import (
	"os"

	"github.com/garagon/yarara/cmd/yarara/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(2)
	}
}
