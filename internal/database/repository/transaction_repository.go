package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
)

// TransactionRepository defines the interface for sale transaction data operations
type TransactionRepository interface {
	Create(txn *models.Transaction) error
	FindByReference(reference uuid.UUID) (*models.Transaction, error)
	ListByUser(userID uint, offset, limit int) ([]models.Transaction, int64, error)
	Complete(reference uuid.UUID, at time.Time) (*models.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

func (r *transactionRepository) FindByReference(reference uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.Where("reference = ?", reference).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// ListByUser returns transactions where the user is buyer or seller, newest first
func (r *transactionRepository) ListByUser(userID uint, offset, limit int) ([]models.Transaction, int64, error) {
	var txns []models.Transaction
	var total int64

	query := r.db.Model(&models.Transaction{}).
		Where("buyer_id = ? OR seller_id = ?", userID, userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&txns).Error
	return txns, total, err
}

// Complete settles a pending transaction and marks its listing SOLD in one DB transaction
func (r *transactionRepository) Complete(reference uuid.UUID, at time.Time) (*models.Transaction, error) {
	var txn models.Transaction

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reference = ?", reference).First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if txn.Status != models.TransactionPending {
			return ErrTransactionNotPending
		}

		result := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionPending).
			Updates(map[string]any{
				"status":       models.TransactionCompleted,
				"completed_at": at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTransactionNotPending
		}

		if err := tx.Model(&models.Listing{}).
			Where("id = ?", txn.ListingID).
			Update("status", models.ListingSold).Error; err != nil {
			return err
		}

		txn.Status = models.TransactionCompleted
		txn.CompletedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

var (
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrTransactionNotPending = errors.New("transaction is not pending")
)
