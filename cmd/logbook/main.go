// Package main is the entry point for the logbook CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/logbookscan/internal/cli"
)

func main() {
	// Optional .env; variables already set in the shell take precedence.
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
