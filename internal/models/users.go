package models

import (
	"time"
)

type User struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	Name            string    `db:"name" json:"name"`
	PhoneNumber     string    `db:"phone_number" json:"phone_number"`
	HashedPassword  string    `db:"hashed_password" json:"-"`
	KycStatus       string    `db:"kyc_status" json:"kyc_status"`
	IsPlatformAdmin bool      `db:"is_platform_admin" json:"is_platform_admin"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
