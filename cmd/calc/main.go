package main

import (
	"os"

	"github.com/msto63/calcparse/cmd/calc/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
