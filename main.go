package main

import (
	"github.com/joho/godotenv"

	"github.com/lwneal/cinematic-generator/cmd"
)

func main() {
	// .env is for local runs; CI passes secrets through the environment
	_ = godotenv.Load()
	cmd.Execute()
}
