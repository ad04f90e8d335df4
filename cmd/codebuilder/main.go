package main

import (
	"os"

	"github.com/ariel-frischer/codebuilder/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
