package main

import (
	"log"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("aviso: no se cargó .env: %v", err)
	}
	Execute()
}
