package controllers

import (
	"errors"
	"net/http"

	"github.com/lotgo/lotgo-backend/config"
	"github.com/lotgo/lotgo-backend/models"
	"github.com/lotgo/lotgo-backend/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterUser creates a user ahead of their first socket identify.
func RegisterUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.User
	if err := config.DB.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}

	user := models.User{Username: req.Username, Balance: services.StartingBalance}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetUser fetches a user by username.
func GetUser(c *gin.Context) {
	var user models.User
	if err := config.DB.Where("username = ?", c.Param("username")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, user)
}
