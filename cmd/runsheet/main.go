package main

import (
	"os"

	"github.com/runsheet/runsheet/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
