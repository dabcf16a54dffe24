package main

import (
	"os"

	"github.com/kbukum/microhttp/cmd/microhttp/cli"
)

func main() {
	os.Exit(cli.Execute())
}
