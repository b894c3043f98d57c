package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// A .env next to the binary is a local development convenience; a
	// missing file is not an error.
	_ = godotenv.Load()

	Execute()
}
