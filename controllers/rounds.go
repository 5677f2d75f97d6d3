package controllers

import (
	"net/http"

	"github.com/lotgo/lotgo-backend/config"
	"github.com/lotgo/lotgo-backend/models"
	"github.com/lotgo/lotgo-backend/services"

	"github.com/gin-gonic/gin"
)

// ListRounds returns recent round history, newest first.
func ListRounds(c *gin.Context) {
	var rounds []models.Round
	if err := config.DB.Order("id DESC").Limit(50).Find(&rounds).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, rounds)
}

// LobbyStatus exposes the live waiting-room directory over REST.
func LobbyStatus(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": coord.WaitingRooms()})
	}
}
