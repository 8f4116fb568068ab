package main

import (
	"os"

	"github.com/ovchar/divspread/cmd/divspread/commands"
)

// main is the entry point for the divspread CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
