package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/clauselens/clauselens-backend/internal/app"
)

func main() {
	// Missing .env is fine in deployed environments; real env wins.
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		a.Log.Fatal("Server exited", "error", err)
	}
}
