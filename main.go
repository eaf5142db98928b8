/*
Copyright © 2025 daivikpurani
*/
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/daivikpurani/AI-Tutor/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
}
