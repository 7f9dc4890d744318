package repository

import (
	"context"

	"github.com/cradoe/splitsy/internal/models"
)

type TransactionRepository interface {
	Insert(trx *models.Transaction) (bool, error)
	GetAllByPoolId(poolID string) ([]models.Transaction, error)
}

const (
	TransactionTypePurchase = "purchase"
	TransactionTypeRefund   = "refund"
	TransactionTypeFee      = "fee"
)

const (
	TransactionStatusPending  = "pending"
	TransactionStatusPosted   = "posted"
	TransactionStatusDeclined = "declined"
)

type TransactionRepositoryImpl struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

// Insert reports false when a transaction with the same provider reference already exists.
func (repo *TransactionRepositoryImpl) Insert(trx *models.Transaction) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO transactions (pool_id, card_id, amount, type, status, merchant_name, provider_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider_reference) DO NOTHING`

	res, err := repo.db.ExecContext(ctx, query,
		trx.PoolID,
		trx.CardID,
		trx.Amount,
		trx.Type,
		trx.Status,
		trx.MerchantName,
		trx.ProviderReference,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (repo *TransactionRepositoryImpl) GetAllByPoolId(poolID string) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	transactions := []models.Transaction{}

	query := `SELECT * FROM transactions WHERE pool_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &transactions, query, poolID)
	return transactions, err
}
