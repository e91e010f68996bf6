// Command web serves the sales dashboard API.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"salesdash/internal/app"
	"salesdash/internal/infrastructure"
)

func main() {
	// Local development keeps SALESDASH_* settings in .env.
	_ = godotenv.Load()

	ctx := context.Background()

	application, err := app.NewApplication(ctx)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := application.Run(ctx); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
