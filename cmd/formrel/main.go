package main

import (
	"os"

	"github.com/solatis/formrel/cmd/formrel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
