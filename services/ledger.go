package services

import (
	"errors"
	"fmt"

	"github.com/lotgo/lotgo-backend/models"

	"gorm.io/gorm"
)

// StartingBalance is credited to first-time users at identify.
const StartingBalance = 10000

// ErrInsufficientFunds is returned by Debit/Transfer when the ledger balance
// cannot cover the amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger is the external balance collaborator. The coordinator treats writes
// as fire-and-forget: its cached balances may be briefly stale relative to
// the ledger.
type Ledger interface {
	// Identify finds or creates the user for a display name.
	Identify(username string) (*models.User, error)
	// Credit adds amount to the user's balance and records a transaction.
	Credit(userID uint, amount float64, kind models.TransactionType) (float64, error)
	// Debit subtracts amount, failing with ErrInsufficientFunds when the
	// balance cannot cover it.
	Debit(userID uint, amount float64, kind models.TransactionType) (float64, error)
	// Transfer atomically moves amount between two users.
	Transfer(fromID, toID uint, amount float64) error
}

// RoundStore persists round history. Live room state never touches it.
type RoundStore interface {
	Create(round *models.Round) error
	Update(round *models.Round) error
}

// GormLedger is the Postgres-backed ledger.
type GormLedger struct {
	DB *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{DB: db}
}

func (l *GormLedger) Identify(username string) (*models.User, error) {
	var user models.User
	err := l.DB.Where("username = ?", username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{Username: username, Balance: StartingBalance}
	if err := l.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (l *GormLedger) Credit(userID uint, amount float64, kind models.TransactionType) (float64, error) {
	return l.apply(userID, amount, kind)
}

func (l *GormLedger) Debit(userID uint, amount float64, kind models.TransactionType) (float64, error) {
	return l.apply(userID, -amount, kind)
}

// apply adjusts a single balance and records the transaction atomically.
func (l *GormLedger) apply(userID uint, delta float64, kind models.TransactionType) (float64, error) {
	var after float64
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if user.Balance+delta < 0 {
			return ErrInsufficientFunds
		}
		user.Balance += delta
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		after = user.Balance
		return tx.Create(&models.Transaction{
			UserID:       userID,
			Type:         kind,
			Amount:       delta,
			BalanceAfter: user.Balance,
		}).Error
	})
	return after, err
}

func (l *GormLedger) Transfer(fromID, toID uint, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %v", amount)
	}
	return l.DB.Transaction(func(tx *gorm.DB) error {
		var from, to models.User
		if err := tx.First(&from, fromID).Error; err != nil {
			return err
		}
		if err := tx.First(&to, toID).Error; err != nil {
			return err
		}
		if from.Balance < amount {
			return ErrInsufficientFunds
		}
		from.Balance -= amount
		to.Balance += amount
		if err := tx.Save(&from).Error; err != nil {
			return err
		}
		if err := tx.Save(&to).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Transaction{
			UserID: fromID, Type: models.GiftOutTransaction, Amount: -amount, BalanceAfter: from.Balance,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Transaction{
			UserID: toID, Type: models.GiftInTransaction, Amount: amount, BalanceAfter: to.Balance,
		}).Error
	})
}

// GormRoundStore persists rounds to Postgres.
type GormRoundStore struct {
	DB *gorm.DB
}

func NewGormRoundStore(db *gorm.DB) *GormRoundStore {
	return &GormRoundStore{DB: db}
}

func (s *GormRoundStore) Create(round *models.Round) error {
	return s.DB.Create(round).Error
}

func (s *GormRoundStore) Update(round *models.Round) error {
	return s.DB.Save(round).Error
}
