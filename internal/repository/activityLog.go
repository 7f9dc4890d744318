// Every action a user takes is logged in audit_logs.
// entity and entity_id are polymorphic so the table serves every part of the
// application. The login lockout is computed from these rows.
package repository

import (
	"context"

	"github.com/cradoe/splitsy/internal/models"
)

type ActivityRepository interface {
	CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int
	Insert(log *models.ActivityLog) (*models.ActivityLog, error)
	List(filter ListFilter) ([]models.ActivityLog, error)
}

const (
	ActivityLogUserEntity         = "user"
	ActivityLogGroupEntity        = "group"
	ActivityLogPoolEntity         = "pool"
	ActivityLogContributionEntity = "contribution"
	ActivityLogCardEntity         = "card"
	ActivityLogSplitEntity        = "split"
	ActivityLogVerificationEntity = "verification"
)

type ActivityRepositoryImpl struct {
	db DBTX
}

func NewActivityRepository(db DBTX) ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (repo *ActivityRepositoryImpl) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var inserted models.ActivityLog

	query := `
		INSERT INTO audit_logs (user_id, entity, entity_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING *`

	err := repo.db.GetContext(ctx, &inserted, query,
		log.UserID,
		log.Entity,
		log.EntityId,
		log.Description,
	)
	if err != nil {
		return nil, err
	}

	return &inserted, nil
}

// List matches Search against the description, entity and entity id.
func (repo *ActivityRepositoryImpl) List(filter ListFilter) ([]models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	logs := []models.ActivityLog{}

	query := `
		SELECT * FROM audit_logs
		WHERE ($1::text = '' OR description ILIKE '%' || $1 || '%' OR entity = $1 OR entity_id = $1)
		AND ($2::timestamptz IS NULL OR created_at >= $2)
		AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	err := repo.db.SelectContext(ctx, &logs, query, filter.Search, filter.From, filter.To, filter.Limit, filter.Offset)
	return logs, err
}

// CountConsecutiveFailedLoginAttempts counts how many of the user's most recent
// login attempts (up to 3) were failures, stopping at the first success.
func (repo *ActivityRepositoryImpl) CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var descriptions []string

	query := `
		SELECT description
		FROM audit_logs
		WHERE user_id = $1 AND entity = $2 AND description LIKE 'Login%'
		ORDER BY created_at DESC
		LIMIT 3`

	err := repo.db.SelectContext(ctx, &descriptions, query, userID, ActivityLogUserEntity)
	if err != nil {
		return 0
	}

	count := 0
	for _, desc := range descriptions {
		if desc != actionDesc {
			break
		}
		count++
	}

	return count
}
