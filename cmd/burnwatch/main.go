package main

import (
	"os"

	"github.com/burnwatch/burnwatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
