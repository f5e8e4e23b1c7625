package main

import (
	"os"

	"github.com/cw-kang/rleval-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
