package routes

import (
	"github.com/lotgo/lotgo-backend/controllers"
	"github.com/lotgo/lotgo-backend/services"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, coord *services.Coordinator) {
	api := r.Group("/api")

	// ----------------------
	// User routes
	// ----------------------
	api.POST("/users", controllers.RegisterUser)
	api.GET("/users/:username", controllers.GetUser)
	api.GET("/users/:username/transactions", controllers.ListTransactions)

	// ----------------------
	// Wallet routes
	// ----------------------
	api.POST("/deposit", controllers.Deposit)
	api.POST("/withdraw", controllers.Withdraw)

	// ----------------------
	// Game routes
	// ----------------------
	api.GET("/rounds", controllers.ListRounds)
	api.GET("/lobby", controllers.LobbyStatus(coord))
}
