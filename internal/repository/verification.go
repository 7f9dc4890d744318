package repository

import (
	"context"

	"github.com/cradoe/splitsy/internal/models"
)

type VerificationRepository interface {
	Upsert(v *models.UserVerification) error
	GetByUserId(userID string) (*models.UserVerification, bool, error)
	SetDocument(userID, documentURL string) error
	SetCardholderId(userID, cardholderID string) error
	Review(userID, reviewerID, status, rejectionReason string) error
	GetAllByStatus(status string) ([]models.UserVerification, error)
}

type VerificationRepositoryImpl struct {
	db DBTX
}

func NewVerificationRepository(db DBTX) VerificationRepository {
	return &VerificationRepositoryImpl{db: db}
}

// Upsert stores a (re)submission and moves the user to pending review.
func (repo *VerificationRepositoryImpl) Upsert(v *models.UserVerification) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO user_verifications (
			user_id, legal_name, date_of_birth, address_line1, city, state,
			postal_code, country, encrypted_ssn, encrypted_id_number, ssn_last4
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			legal_name = EXCLUDED.legal_name,
			date_of_birth = EXCLUDED.date_of_birth,
			address_line1 = EXCLUDED.address_line1,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country,
			encrypted_ssn = EXCLUDED.encrypted_ssn,
			encrypted_id_number = EXCLUDED.encrypted_id_number,
			ssn_last4 = EXCLUDED.ssn_last4,
			submitted_at = NOW(),
			reviewed_at = NULL,
			reviewed_by = NULL,
			rejection_reason = NULL`

	_, err = tx.ExecContext(ctx, query,
		v.UserID,
		v.LegalName,
		v.DateOfBirth,
		v.AddressLine1,
		v.City,
		v.State,
		v.PostalCode,
		v.Country,
		v.EncryptedSSN,
		v.EncryptedIDNumber,
		v.SSNLast4,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET kyc_status = $1 WHERE id = $2`, KycStatusPending, v.UserID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

const verificationColumns = `
	v.user_id, v.legal_name, v.date_of_birth, v.address_line1, v.city, v.state,
	v.postal_code, v.country, v.encrypted_ssn, v.encrypted_id_number, v.ssn_last4,
	v.document_url, v.provider_cardholder_id, v.submitted_at, v.reviewed_at,
	v.reviewed_by, v.rejection_reason, u.kyc_status, u.email`

func (repo *VerificationRepositoryImpl) GetByUserId(userID string) (*models.UserVerification, bool, error) {
	if !validID(userID) {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var v models.UserVerification

	query := `
		SELECT ` + verificationColumns + `
		FROM user_verifications v
		INNER JOIN users u ON u.id = v.user_id
		WHERE v.user_id = $1`

	err := repo.db.GetContext(ctx, &v, query, userID)
	if notFound(err) {
		return nil, false, nil
	}

	return &v, true, err
}

func (repo *VerificationRepositoryImpl) SetDocument(userID, documentURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE user_verifications SET document_url = $1 WHERE user_id = $2`

	_, err := repo.db.ExecContext(ctx, query, documentURL, userID)
	return err
}

func (repo *VerificationRepositoryImpl) SetCardholderId(userID, cardholderID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE user_verifications SET provider_cardholder_id = $1 WHERE user_id = $2`

	_, err := repo.db.ExecContext(ctx, query, cardholderID, userID)
	return err
}

// Review records the reviewer's decision and mirrors it onto users.kyc_status.
func (repo *VerificationRepositoryImpl) Review(userID, reviewerID, status, rejectionReason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE user_verifications
		SET reviewed_at = NOW(), reviewed_by = $1, rejection_reason = NULLIF($2, '')
		WHERE user_id = $3`

	_, err = tx.ExecContext(ctx, query, reviewerID, rejectionReason, userID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET kyc_status = $1 WHERE id = $2`, status, userID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (repo *VerificationRepositoryImpl) GetAllByStatus(status string) ([]models.UserVerification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	verifications := []models.UserVerification{}

	query := `
		SELECT ` + verificationColumns + `
		FROM user_verifications v
		INNER JOIN users u ON u.id = v.user_id
		WHERE u.kyc_status = $1
		ORDER BY v.submitted_at`

	err := repo.db.SelectContext(ctx, &verifications, query, status)
	return verifications, err
}
