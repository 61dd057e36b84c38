package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/hitoshi/tabiplan/internal/app"
)

func main() {
	// .env があれば読み込む（なければ環境変数のみで動く）
	_ = godotenv.Load()

	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
