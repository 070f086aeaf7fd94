package main

import (
	"os"

	"github.com/split-proj/atmsplit/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
