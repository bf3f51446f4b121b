package main

import (
	"db-mirror/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cmd.Execute()
}
