package repository

import (
	"context"

	"github.com/cradoe/splitsy/internal/models"
	"github.com/shopspring/decimal"
)

type PoolRepository interface {
	Insert(pool *models.Pool) (*models.Pool, error)
	GetOne(id string) (*models.Pool, bool, error)
	GetAllByGroupId(groupID string) ([]models.Pool, error)
	Balance(id string) (decimal.Decimal, error)
	Close(id string) (bool, error)
}

const (
	PoolStatusOpen   = "open"
	PoolStatusClosed = "closed"
)

type PoolRepositoryImpl struct {
	db DBTX
}

func NewPoolRepository(db DBTX) PoolRepository {
	return &PoolRepositoryImpl{db: db}
}

func (repo *PoolRepositoryImpl) Insert(pool *models.Pool) (*models.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created models.Pool

	query := `
		INSERT INTO pools (group_id, name, target_amount, designated_payer, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`

	err := repo.db.GetContext(ctx, &created, query,
		pool.GroupID,
		pool.Name,
		pool.TargetAmount,
		pool.DesignatedPayer,
		pool.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (repo *PoolRepositoryImpl) GetOne(id string) (*models.Pool, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var pool models.Pool

	query := `SELECT * FROM pools WHERE id = $1`

	err := repo.db.GetContext(ctx, &pool, query, id)
	if notFound(err) {
		return nil, false, nil
	}

	return &pool, true, err
}

func (repo *PoolRepositoryImpl) GetAllByGroupId(groupID string) ([]models.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	pools := []models.Pool{}

	query := `SELECT * FROM pools WHERE group_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &pools, query, groupID)
	return pools, err
}

// Balance is the sum of the pool's succeeded contributions.
func (repo *PoolRepositoryImpl) Balance(id string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var balance decimal.Decimal

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM contributions
		WHERE pool_id = $1 AND status = $2`

	err := repo.db.GetContext(ctx, &balance, query, id, ContributionStatusSucceeded)
	return balance, err
}

// Close reports false when the pool was already closed.
func (repo *PoolRepositoryImpl) Close(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE pools SET status = $1, closed_at = NOW()
		WHERE id = $2 AND status = $3`

	res, err := repo.db.ExecContext(ctx, query, PoolStatusClosed, id, PoolStatusOpen)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}
