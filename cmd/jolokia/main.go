package main

import (
	"os"

	"github.com/kroksys/jolokia/cmd/jolokia/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
