package main

import (
	"os"

	"github.com/noah-isme/roots-api/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
