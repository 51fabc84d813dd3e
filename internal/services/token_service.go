package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/apperrors"

	"github.com/dgrijalva/jwt-go"
)

// TokenTTL is how long an issued token stays valid. There is no revocation:
// logging out means discarding the token on the client.
const TokenTTL = 7 * 24 * time.Hour

// Identity is the caller resolved from a verified token.
type Identity struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// tokenClaims is the JWT payload. The user id travels in the `id` claim.
type tokenClaims struct {
	UserID string `json:"id"`
	jwt.StandardClaims
}

// TokenService issues and verifies HS256 identity tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. An empty secret is accepted here and
// reported by Issue and Verify instead.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

// Issue signs a token for userID that expires TokenTTL from now.
func (s *TokenService) Issue(userID string) (string, error) {
	if len(s.secret) == 0 {
		return "", apperrors.ErrMissingSecret
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		log.Printf("token_generation_error: %v", err)
		return "", apperrors.ErrTokenSigning.Wrap(err)
	}
	return signed, nil
}

// Verify parses tokenString and returns the identity it asserts.
func (s *TokenService) Verify(tokenString string) (*Identity, error) {
	if len(s.secret) == 0 {
		return nil, apperrors.ErrMissingSecret
	}

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) &&
			ve.Errors&jwt.ValidationErrorExpired != 0 &&
			ve.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorMalformed|jwt.ValidationErrorUnverifiable) == 0 {
			return nil, apperrors.ErrTokenExpired.Wrap(err)
		}
		return nil, apperrors.ErrInvalidToken.Wrap(err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, apperrors.ErrInvalidToken
	}

	return &Identity{
		UserID:    claims.UserID,
		IssuedAt:  time.Unix(claims.IssuedAt, 0),
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}, nil
}
