package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/gokatarajesh/quiz-battle/internal/cli"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load("configs/.env"); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
