package main

import (
	"fmt"
	"os"

	"github.com/specflow/specflow/cmd/specflow/commands"
	"github.com/specflow/specflow/internal/display"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, display.ErrorMsg("%v", err))
		os.Exit(commands.ExitCode(err))
	}
}
