package repository

import (
	"context"

	"github.com/cradoe/splitsy/internal/models"
)

type UserRepository interface {
	CheckIfPhoneNumberExist(phoneNumber string) (bool, error)
	Insert(user *models.User) (string, error)
	GetOne(id string) (*models.User, bool, error)
	GetByEmail(email string) (*models.User, bool, error)
	UpdateKycStatus(id, status string) error
	PromoteToPlatformAdmin(email string) (bool, error)
	Lock(id string) error
	Unlock(id string) error
}

const (
	// UserAccountActiveStatus indicates that the user's account is active and fully functional.
	// This is the default status after registration.
	UserAccountActiveStatus = "active"

	// UserAccountLockedStatus indicates that the user's account has been locked,
	// either after repeated failed logins or by a platform admin.
	// A locked account cannot be accessed until a platform admin unlocks it.
	UserAccountLockedStatus = "locked"
)

const (
	KycStatusUnverified = "unverified"
	KycStatusPending    = "pending"
	KycStatusVerified   = "verified"
	KycStatusRejected   = "rejected"
)

type UserRepositoryImpl struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (repo *UserRepositoryImpl) Insert(user *models.User) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO users (email, name, phone_number, hashed_password)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		user.Email,
		user.Name,
		user.PhoneNumber,
		user.HashedPassword,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *UserRepositoryImpl) GetOne(id string) (*models.User, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User

	query := `SELECT * FROM users WHERE id = $1`

	err := repo.db.GetContext(ctx, &user, query, id)
	if notFound(err) {
		return nil, false, nil
	}

	return &user, true, err
}

func (repo *UserRepositoryImpl) GetByEmail(email string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User

	query := `SELECT * FROM users WHERE LOWER(email) = LOWER($1)`

	err := repo.db.GetContext(ctx, &user, query, email)
	if notFound(err) {
		return nil, false, nil
	}

	return &user, true, err
}

func (repo *UserRepositoryImpl) CheckIfPhoneNumberExist(phoneNumber string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE phone_number = $1)`

	err := repo.db.GetContext(ctx, &exists, query, phoneNumber)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (repo *UserRepositoryImpl) UpdateKycStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET kyc_status = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}

// PromoteToPlatformAdmin reports false when no user has the email.
func (repo *UserRepositoryImpl) PromoteToPlatformAdmin(email string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET is_platform_admin = TRUE WHERE LOWER(email) = LOWER($1)`

	res, err := repo.db.ExecContext(ctx, query, email)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (repo *UserRepositoryImpl) Lock(id string) error {
	return repo.setStatus(id, UserAccountLockedStatus)
}

func (repo *UserRepositoryImpl) Unlock(id string) error {
	return repo.setStatus(id, UserAccountActiveStatus)
}

func (repo *UserRepositoryImpl) setStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET status = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}
