package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/userhub/user-directory/internal/core/domain"
	"github.com/userhub/user-directory/internal/core/ports"
)

// bcryptCost is the fixed work factor for password hashing.
const bcryptCost = 12

var errInvalidToken = errors.New("invalid token")

// CredentialService implements password hashing and JWT session tokens.
// The signing secret and token TTL are process-wide configuration.
type CredentialService struct {
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewCredentialService(jwtSecret string, tokenTTL time.Duration) *CredentialService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &CredentialService{jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL}
}

func (s *CredentialService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password was the input that produced hash.
// A malformed hash reports false rather than an error.
func (s *CredentialService) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *CredentialService) IssueToken(user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}

// ParseToken verifies the signature and expiry, enforcing HS256.
func (s *CredentialService) ParseToken(token string) (*ports.TokenClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, errInvalidToken
	}

	sub, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return nil, errInvalidToken
	}

	return &ports.TokenClaims{UserID: sub, Username: username, Role: role}, nil
}
