package main

import (
	"os"

	"github.com/SirGarbage/Bitirme-Projesi/cmd/forecaster/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
