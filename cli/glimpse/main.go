package main

import (
	"os"

	glimpsecmder "github.com/papercomputeco/glimpse/cmd/glimpse"
)

func main() {
	cmd := glimpsecmder.NewGlimpseCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
