package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/file"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/request"
	"github.com/cradoe/splitsy/internal/smtp"
	"github.com/cradoe/splitsy/internal/validator"
	"github.com/cradoe/splitsy/internal/vault"
)

const maxDocumentBytes = 10 << 20

var (
	ErrNotPendingReview    = errors.New("verification is not awaiting review")
	ErrNoVerification      = errors.New("submit your verification details first")
	ErrUnsupportedDocument = errors.New("document must be a JPEG, PNG or PDF file")
)

// FieldSealer encrypts a sensitive value bound to its owner.
type FieldSealer interface {
	Seal(value, ownerID string) (string, error)
}

type VerificationHandler struct {
	UserRepo         repository.UserRepository
	VerificationRepo repository.VerificationRepository
	ActivityRepo     repository.ActivityRepository
	AdminActionRepo  repository.AdminActionRepository
	Sealer           FieldSealer
	Uploader         file.Uploader
	Mailer           smtp.MailerInterface
	ErrHandler       *errHandler.ErrorHandler
	Helper           *helper.HelperRepository
}

func NewVerificationHandler(handler *VerificationHandler) *VerificationHandler {
	return &VerificationHandler{
		UserRepo:         handler.UserRepo,
		VerificationRepo: handler.VerificationRepo,
		ActivityRepo:     handler.ActivityRepo,
		AdminActionRepo:  handler.AdminActionRepo,
		Sealer:           handler.Sealer,
		Uploader:         handler.Uploader,
		Mailer:           handler.Mailer,
		ErrHandler:       handler.ErrHandler,
		Helper:           handler.Helper,
	}
}

func (h *VerificationHandler) HandleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	if user.KycStatus != repository.KycStatusUnverified && user.KycStatus != repository.KycStatusRejected {
		h.ErrHandler.Conflict(w, r, ErrVerificationPending)
		return
	}

	var input struct {
		LegalName    string              `json:"legal_name"`
		DateOfBirth  string              `json:"date_of_birth"`
		AddressLine1 string              `json:"address_line1"`
		City         string              `json:"city"`
		State        string              `json:"state"`
		PostalCode   string              `json:"postal_code"`
		Country      string              `json:"country"`
		SSN          string              `json:"ssn"`
		IDNumber     string              `json:"id_number"`
		Validator    validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.SSN = strings.ReplaceAll(strings.TrimSpace(input.SSN), "-", "")
	input.Country = strings.ToUpper(strings.TrimSpace(input.Country))

	input.Validator.Check(validator.NotBlank(input.LegalName), "Legal name is required")
	input.Validator.Check(validator.NotBlank(input.AddressLine1), "Address is required")
	input.Validator.Check(validator.NotBlank(input.City), "City is required")
	input.Validator.Check(validator.NotBlank(input.State), "State is required")
	input.Validator.Check(validator.NotBlank(input.PostalCode), "Postal code is required")
	input.Validator.Check(validator.Matches(input.Country, validator.RgxCountryCode), "Country must be a two letter code")
	input.Validator.Check(validator.Matches(input.SSN, validator.RgxSSN), "SSN must be 9 digits")
	input.Validator.Check(validator.NotBlank(input.IDNumber), "ID number is required")

	dob, err := time.Parse(time.DateOnly, input.DateOfBirth)
	if err != nil {
		input.Validator.AddError("Date of birth must be in YYYY-MM-DD format")
	} else {
		input.Validator.Check(validator.IsAdult(dob, time.Now()), "You must be at least 18 years old")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	encryptedSSN, err := h.Sealer.Seal(input.SSN, user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	encryptedIDNumber, err := h.Sealer.Seal(strings.TrimSpace(input.IDNumber), user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	verification := &models.UserVerification{
		UserID:            user.ID,
		LegalName:         strings.TrimSpace(input.LegalName),
		DateOfBirth:       dob,
		AddressLine1:      strings.TrimSpace(input.AddressLine1),
		City:              strings.TrimSpace(input.City),
		State:             strings.TrimSpace(input.State),
		PostalCode:        strings.TrimSpace(input.PostalCode),
		Country:           input.Country,
		EncryptedSSN:      encryptedSSN,
		EncryptedIDNumber: encryptedIDNumber,
		SSNLast4:          vault.Last4(input.SSN),
		SubmittedAt:       time.Now(),
		KycStatus:         repository.KycStatusPending,
		Email:             user.Email,
	}

	err = h.VerificationRepo.Upsert(verification)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	logActivity(h.Helper, h.ActivityRepo, r, &models.ActivityLog{
		UserID:      sql.NullString{String: user.ID, Valid: true},
		Entity:      repository.ActivityLogVerificationEntity,
		EntityId:    user.ID,
		Description: "Verification submitted",
	})

	writeCreated(w, r, h.ErrHandler, verification.View(), "Verification submitted for review")
}

func (h *VerificationHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	_, found, err := h.VerificationRepo.GetByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.FailedValidation(w, r, []string{ErrNoVerification.Error()})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes+1024)

	err = r.ParseMultipartForm(maxDocumentBytes)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, fmt.Errorf("document must be a multipart upload of at most 10MB"))
		return
	}

	document, _, err := r.FormFile("file")
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{"File is required"})
		return
	}
	defer document.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(document, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	contentType := http.DetectContentType(head[:n])
	if !validator.PermittedValue(contentType, "image/jpeg", "image/png", "application/pdf") {
		h.ErrHandler.FailedValidation(w, r, []string{ErrUnsupportedDocument.Error()})
		return
	}

	if _, err := document.Seek(0, io.SeekStart); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	url, err := h.Uploader.UploadFile(document, file.KYCFolder, user.ID+"-id-document")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.VerificationRepo.SetDocument(user.ID, url)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	logActivity(h.Helper, h.ActivityRepo, r, &models.ActivityLog{
		UserID:      sql.NullString{String: user.ID, Valid: true},
		Entity:      repository.ActivityLogVerificationEntity,
		EntityId:    user.ID,
		Description: "Verification document uploaded",
	})

	writeOK(w, r, h.ErrHandler, nil, "Document uploaded successfully")
}

func (h *VerificationHandler) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	verification, found, err := h.VerificationRepo.GetByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	writeOK(w, r, h.ErrHandler, verification.View(), "Verification fetched successfully")
}

func (h *VerificationHandler) HandleListVerifications(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = repository.KycStatusPending
	}

	if !validator.PermittedValue(status, repository.KycStatusPending, repository.KycStatusVerified, repository.KycStatusRejected) {
		h.ErrHandler.FailedValidation(w, r, []string{"Status must be one of pending, verified or rejected"})
		return
	}

	verifications, err := h.VerificationRepo.GetAllByStatus(status)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	views := make([]*models.VerificationView, 0, len(verifications))
	for i := range verifications {
		views = append(views, verifications[i].View())
	}

	writeOK(w, r, h.ErrHandler, views, "Verifications fetched successfully")
}

func (h *VerificationHandler) HandleApproveVerification(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, repository.KycStatusVerified, "")
}

func (h *VerificationHandler) HandleRejectVerification(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason    string              `json:"reason"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Reason = strings.TrimSpace(input.Reason)
	input.Validator.Check(validator.NotBlank(input.Reason), "Reason is required")
	input.Validator.Check(validator.MaxRunes(input.Reason, 500), "Reason must not be more than 500 characters")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	h.review(w, r, repository.KycStatusRejected, input.Reason)
}

func (h *VerificationHandler) review(w http.ResponseWriter, r *http.Request, status, reason string) {
	admin := context.ContextGetAuthenticatedUser(r)
	userID := r.PathValue("user_id")

	verification, found, err := h.VerificationRepo.GetByUserId(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if verification.KycStatus != repository.KycStatusPending {
		h.ErrHandler.Conflict(w, r, ErrNotPendingReview)
		return
	}

	err = h.VerificationRepo.Review(userID, admin.ID, status, reason)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	action := repository.AdminActionApproveVerification
	outcome := "approved"
	if status == repository.KycStatusRejected {
		action = repository.AdminActionRejectVerification
		outcome = "rejected"
	}

	logAdminAction(h.Helper, h.AdminActionRepo, r, &models.AdminAction{
		AdminID:    admin.ID,
		Action:     action,
		TargetType: repository.ActivityLogUserEntity,
		TargetID:   userID,
		Details:    reason,
	})

	h.Helper.BackgroundTask(r, func() error {
		emailData := h.Helper.NewEmailData()
		emailData["Name"] = verification.LegalName
		emailData["Status"] = outcome
		emailData["Reason"] = reason

		err := h.Mailer.Send(verification.Email, emailData, "verification-reviewed.tmpl")
		if err != nil {
			return fmt.Errorf("send verification review email: %w", err)
		}

		return nil
	})

	verification.KycStatus = status
	verification.RejectionReason = sql.NullString{String: reason, Valid: reason != ""}
	now := time.Now()
	verification.ReviewedAt = sql.NullTime{Time: now, Valid: true}

	writeOK(w, r, h.ErrHandler, verification.View(), "Verification "+outcome)
}

func logAdminAction(hp *helper.HelperRepository, repo repository.AdminActionRepository, r *http.Request, action *models.AdminAction) {
	hp.BackgroundTask(r, func() error {
		err := repo.Insert(action)
		if err != nil {
			return fmt.Errorf("log admin action %q: %w", action.Action, err)
		}

		return nil
	})
}
