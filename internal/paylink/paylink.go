// Package paylink issues the signed tokens embedded in split payment links.
package paylink

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const audience = "splitsy-pay"

var ErrInvalidLink = errors.New("invalid or expired payment link")

// Claims identify a split participant. The token id (jti) is the
// participant's pay_token_id, so rotating that column revokes the link.
type Claims struct {
	SplitID       string `json:"split_id"`
	ParticipantID string `json:"participant_id"`
	jwt.RegisteredClaims
}

type Signer struct {
	secretKey []byte
	ttl       time.Duration
	baseURL   string
	now       func() time.Time
}

func NewSigner(secretKey string, ttl time.Duration, baseURL string) *Signer {
	return &Signer{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       time.Now,
	}
}

func (s *Signer) Issue(splitID, participantID, tokenID string) (string, error) {
	now := s.now()

	claims := &Claims{
		SplitID:       splitID,
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    s.baseURL,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign pay link: %w", err)
	}

	return token, nil
}

func (s *Signer) Parse(token string) (*Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(s.baseURL),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	if claims.ID == "" || claims.ParticipantID == "" {
		return nil, ErrInvalidLink
	}

	return &claims, nil
}

func (s *Signer) URL(token string) string {
	return s.baseURL + "/pay/" + token
}
