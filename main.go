package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/lotgo/lotgo-backend/config"
	"github.com/lotgo/lotgo-backend/routes"
	"github.com/lotgo/lotgo-backend/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// initEnv loads .env file and validates required vars
func initEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	if os.Getenv("DATABASE_URL") == "" {
		log.Fatal("[FATAL] DATABASE_URL is required in .env or environment")
	}
}

// setupRouter initializes Gin routes and middleware
func setupRouter(coord *services.Coordinator) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, coord)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	// WebSocket game endpoint
	r.GET("/ws", coord.HandleWebSocket)

	return r
}

func main() {
	initEnv()

	db := config.SetupDatabase()

	coord := services.NewCoordinator(
		services.NewGormLedger(db),
		services.NewGormRoundStore(db),
	)

	router := setupRouter(coord)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Printf("LotGo backend starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("[FATAL] Failed to start server: %v", err)
	}
}
