package main

import (
	"os"

	"github.com/mediaid/mediaid-api/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
