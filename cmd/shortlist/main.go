package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the config file may still reference real env vars.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
