package models

import (
	"database/sql"
	"time"
)

type UserVerification struct {
	UserID               string         `db:"user_id"`
	LegalName            string         `db:"legal_name"`
	DateOfBirth          time.Time      `db:"date_of_birth"`
	AddressLine1         string         `db:"address_line1"`
	City                 string         `db:"city"`
	State                string         `db:"state"`
	PostalCode           string         `db:"postal_code"`
	Country              string         `db:"country"`
	EncryptedSSN         string         `db:"encrypted_ssn"`
	EncryptedIDNumber    string         `db:"encrypted_id_number"`
	SSNLast4             string         `db:"ssn_last4"`
	DocumentURL          sql.NullString `db:"document_url"`
	ProviderCardholderID sql.NullString `db:"provider_cardholder_id"`
	SubmittedAt          time.Time      `db:"submitted_at"`
	ReviewedAt           sql.NullTime   `db:"reviewed_at"`
	ReviewedBy           sql.NullString `db:"reviewed_by"`
	RejectionReason      sql.NullString `db:"rejection_reason"`

	// joined from users
	KycStatus string `db:"kyc_status"`
	Email     string `db:"email"`
}

// VerificationView is the masked shape returned to clients. Encrypted values never leave the server.
type VerificationView struct {
	UserID          string     `json:"user_id"`
	Email           string     `json:"email,omitempty"`
	LegalName       string     `json:"legal_name"`
	DateOfBirth     string     `json:"date_of_birth"`
	Country         string     `json:"country"`
	SSNLast4        string     `json:"ssn_last4"`
	HasDocument     bool       `json:"has_document"`
	KycStatus       string     `json:"kyc_status"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

func (v *UserVerification) View() *VerificationView {
	view := &VerificationView{
		UserID:          v.UserID,
		Email:           v.Email,
		LegalName:       v.LegalName,
		DateOfBirth:     v.DateOfBirth.Format(time.DateOnly),
		Country:         v.Country,
		SSNLast4:        v.SSNLast4,
		HasDocument:     v.DocumentURL.Valid,
		KycStatus:       v.KycStatus,
		SubmittedAt:     v.SubmittedAt,
		RejectionReason: v.RejectionReason.String,
	}
	if v.ReviewedAt.Valid {
		view.ReviewedAt = &v.ReviewedAt.Time
	}

	return view
}
