package main

import (
	"github.com/joho/godotenv"

	"github.com/nvbach/llm-bridge/internal/cli"
)

func main() {
	_ = godotenv.Load()
	cli.Execute()
}
