package main

import (
	"log"

	"github.com/lotgo/lotgo-backend/config"
)

func main() {
	config.SetupDatabase()
	log.Println("Database migration completed successfully")
}
