package repository

import (
	"context"
	"database/sql"

	"github.com/cradoe/splitsy/internal/models"
)

type SettingRepository interface {
	Get(key string) (*models.SystemSetting, bool, error)
	Set(key, value, updatedBy string) error
}

// SettingKillSwitch holds "true" or "false".
const SettingKillSwitch = "kill_switch"

type SettingRepositoryImpl struct {
	db DBTX
}

func NewSettingRepository(db DBTX) SettingRepository {
	return &SettingRepositoryImpl{db: db}
}

func (repo *SettingRepositoryImpl) Get(key string) (*models.SystemSetting, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var setting models.SystemSetting

	err := repo.db.GetContext(ctx, &setting, `SELECT * FROM system_settings WHERE key = $1`, key)
	if notFound(err) {
		return nil, false, nil
	}

	return &setting, true, err
}

// Set upserts the setting. An empty updatedBy is stored as NULL (seeded values).
func (repo *SettingRepositoryImpl) Set(key, value, updatedBy string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO system_settings (key, value, updated_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()`

	by := sql.NullString{String: updatedBy, Valid: updatedBy != ""}

	_, err := repo.db.ExecContext(ctx, query, key, value, by)
	return err
}
