package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/SirGarbage/Bitirme-Projesi/internal/app"
)

func main() {
	configPath := flag.String("config", "", "config file (default searches ./config.yaml and ./configs/config.yaml)")
	flag.Parse()

	application, err := app.NewApplication(*configPath)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
