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

type balanceRequest struct {
	Username string  `json:"username" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}

func resolveUser(c *gin.Context, username string) (*models.User, bool) {
	var user models.User
	if err := config.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		}
		return nil, false
	}
	return &user, true
}

// Deposit credits a user's wallet.
func Deposit(c *gin.Context) {
	var req balanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := resolveUser(c, req.Username)
	if !ok {
		return
	}

	ledger := services.NewGormLedger(config.DB)
	balance, err := ledger.Credit(user.ID, req.Amount, models.DepositTransaction)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deposit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username, "balance": balance})
}

// Withdraw debits a user's wallet, rejecting overdrafts.
func Withdraw(c *gin.Context) {
	var req balanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := resolveUser(c, req.Username)
	if !ok {
		return
	}

	ledger := services.NewGormLedger(config.DB)
	balance, err := ledger.Debit(user.ID, req.Amount, models.WithdrawTransaction)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientFunds) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to withdraw"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username, "balance": balance})
}

// ListTransactions returns a user's recent ledger history.
func ListTransactions(c *gin.Context) {
	user, ok := resolveUser(c, c.Param("username"))
	if !ok {
		return
	}

	var txs []models.Transaction
	if err := config.DB.Where("user_id = ?", user.ID).Order("id DESC").Limit(50).Find(&txs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, txs)
}
