package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/gyeh/rxmargin/internal/exitcode"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
