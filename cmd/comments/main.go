package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/idilsaglam/comments/internal/cli"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	os.Exit(cli.Run(os.Args[1:], cli.Options{}))
}
