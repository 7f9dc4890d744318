package models

import (
	"database/sql"
	"time"
)

type ActivityLog struct {
	ID          string         `db:"id" json:"id"`
	UserID      sql.NullString `db:"user_id" json:"-"`
	Entity      string         `db:"entity" json:"entity"`
	EntityId    string         `db:"entity_id" json:"entity_id"`
	Description string         `db:"description" json:"description"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

type AdminAction struct {
	ID         string    `db:"id" json:"id"`
	AdminID    string    `db:"admin_id" json:"admin_id"`
	Action     string    `db:"action" json:"action"`
	TargetType string    `db:"target_type" json:"target_type"`
	TargetID   string    `db:"target_id" json:"target_id"`
	Details    string    `db:"details" json:"details"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type SystemSetting struct {
	Key       string         `db:"key" json:"key"`
	Value     string         `db:"value" json:"value"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
	UpdatedBy sql.NullString `db:"updated_by" json:"-"`
}
