package repository

import (
	"context"

	"github.com/cradoe/splitsy/internal/models"
)

type AdminActionRepository interface {
	Insert(action *models.AdminAction) error
	List(filter ListFilter) ([]models.AdminAction, error)
}

const (
	AdminActionKillSwitch          = "kill_switch.set"
	AdminActionApproveVerification = "verification.approve"
	AdminActionRejectVerification  = "verification.reject"
	AdminActionUnlockUser          = "user.unlock"
)

type AdminActionRepositoryImpl struct {
	db DBTX
}

func NewAdminActionRepository(db DBTX) AdminActionRepository {
	return &AdminActionRepositoryImpl{db: db}
}

func (repo *AdminActionRepositoryImpl) Insert(action *models.AdminAction) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO admin_actions (admin_id, action, target_type, target_id, details)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := repo.db.ExecContext(ctx, query,
		action.AdminID,
		action.Action,
		action.TargetType,
		action.TargetID,
		action.Details,
	)
	return err
}

// List matches Search against the action, target and details.
func (repo *AdminActionRepositoryImpl) List(filter ListFilter) ([]models.AdminAction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	actions := []models.AdminAction{}

	query := `
		SELECT * FROM admin_actions
		WHERE ($1::text = '' OR action = $1 OR target_type = $1 OR target_id = $1 OR details ILIKE '%' || $1 || '%')
		AND ($2::timestamptz IS NULL OR created_at >= $2)
		AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	err := repo.db.SelectContext(ctx, &actions, query, filter.Search, filter.From, filter.To, filter.Limit, filter.Offset)
	return actions, err
}
