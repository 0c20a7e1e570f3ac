package main

import (
	"github.com/joho/godotenv"

	"github.com/kirillkom/docqa/internal/cli"
)

func main() {
	_ = godotenv.Load()
	cli.Execute()
}
