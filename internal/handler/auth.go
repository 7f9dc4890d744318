package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cradoe/splitsy/internal/config"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/request"
	"github.com/cradoe/splitsy/internal/response"
	"github.com/cradoe/splitsy/internal/smtp"
	"github.com/cradoe/splitsy/internal/validator"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"
)

// Login descriptions must keep the "Login" prefix, the lockout count reads them back.
const (
	UserActivityLogRegistrationDescription  = "User registration"
	UserActivityLogLoginDescription         = "Login successful"
	UserActivityLogFailedLoginDescription   = "Login failed"
	UserActivityLogLockedAccountDescription = "Login blocked, account locked"
	UserActivityLogUnlockedDescription      = "Login restored by admin"
)

const authTokenTTL = 24 * time.Hour

type AuthHandler struct {
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityRepository
	Mailer       smtp.MailerInterface
	ErrHandler   *errHandler.ErrorHandler
	Helper       *helper.HelperRepository
	Config       *config.Config
}

func NewAuthHandler(handler *AuthHandler) *AuthHandler {
	return &AuthHandler{
		UserRepo:     handler.UserRepo,
		ActivityRepo: handler.ActivityRepo,
		Mailer:       handler.Mailer,
		ErrHandler:   handler.ErrHandler,
		Helper:       handler.Helper,
		Config:       handler.Config,
	}
}

func (h *AuthHandler) HandleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email       string              `json:"email"`
		Password    string              `json:"password"`
		Name        string              `json:"name"`
		PhoneNumber string              `json:"phone_number"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	// a weak password is reported on its own before the other fields
	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")

	if validator.IsEmail(input.Email) {
		_, found, err := h.UserRepo.GetByEmail(input.Email)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		input.Validator.Check(!found, "Email is already in use")
	}

	input.Validator.Check(validator.NotBlank(input.Name), "Name is required")
	input.Validator.Check(validator.MinRunes(input.Name, 2), "Name is too short")

	input.Validator.Check(validator.NotBlank(input.PhoneNumber), "Phone number is required")
	input.Validator.Check(validator.Matches(input.PhoneNumber, validator.RgxPhoneNumber), "Phone number must be in international format")

	found, err := h.UserRepo.CheckIfPhoneNumberExist(input.PhoneNumber)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	input.Validator.Check(!found, "Phone number has been registered")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	createdUser := &models.User{
		Name:           input.Name,
		Email:          input.Email,
		PhoneNumber:    input.PhoneNumber,
		HashedPassword: hashedPassword,
	}

	userID, err := h.UserRepo.Insert(createdUser)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	logActivity(h.Helper, h.ActivityRepo, r, &models.ActivityLog{
		UserID:      sql.NullString{String: userID, Valid: true},
		Entity:      repository.ActivityLogUserEntity,
		EntityId:    userID,
		Description: UserActivityLogRegistrationDescription,
	})

	h.Helper.BackgroundTask(r, func() error {
		emailData := h.Helper.NewEmailData()
		emailData["Name"] = createdUser.Name

		err := h.Mailer.Send(createdUser.Email, emailData, "welcome.tmpl")
		if err != nil {
			return fmt.Errorf("send welcome email: %w", err)
		}

		return nil
	})

	err = response.JSONCreatedResponse(w, map[string]string{"id": userID}, "Account created successfully")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user, found, err := h.UserRepo.GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.FailedValidation(w, r, []string{"Incorrect email/password"})
		return
	}

	if user.Status != repository.UserAccountActiveStatus {
		h.ErrHandler.Forbidden(w, r, ErrAccountLocked)
		return
	}

	passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, user.HashedPassword)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !passwordMatches {
		// counted before this failure is written, so two earlier failures make this the third
		count := h.ActivityRepo.CountConsecutiveFailedLoginAttempts(user.ID, UserActivityLogFailedLoginDescription)

		logActivity(h.Helper, h.ActivityRepo, r, userActivity(user.ID, UserActivityLogFailedLoginDescription))

		if count >= 2 {
			err = h.UserRepo.Lock(user.ID)
			if err != nil {
				h.ErrHandler.ServerError(w, r, err)
				return
			}

			logActivity(h.Helper, h.ActivityRepo, r, userActivity(user.ID, UserActivityLogLockedAccountDescription))

			h.ErrHandler.Forbidden(w, r, ErrAccountLocked)
			return
		}

		h.ErrHandler.FailedValidation(w, r, []string{"Incorrect email/password"})
		return
	}

	logActivity(h.Helper, h.ActivityRepo, r, userActivity(user.ID, UserActivityLogLoginDescription))

	var claims jwt.Claims
	claims.Subject = user.ID

	expiry := time.Now().Add(authTokenTTL)
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]string{
		"auth_token":   string(jwtBytes),
		"token_expiry": expiry.Format(time.RFC3339),
	}

	err = response.JSONOkResponse(w, data, "Login successful", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func userActivity(userID, description string) *models.ActivityLog {
	return &models.ActivityLog{
		UserID:      sql.NullString{String: userID, Valid: true},
		Entity:      repository.ActivityLogUserEntity,
		EntityId:    userID,
		Description: description,
	}
}

// logActivity appends to the audit log without holding up the response.
func logActivity(hp *helper.HelperRepository, repo repository.ActivityRepository, r *http.Request, entry *models.ActivityLog) {
	hp.BackgroundTask(r, func() error {
		_, err := repo.Insert(entry)
		if err != nil {
			return fmt.Errorf("log activity %q: %w", entry.Description, err)
		}

		return nil
	})
}
