package ports

import "github.com/userhub/user-directory/internal/core/domain"

// TokenClaims is the identity decoded from a verified session token.
type TokenClaims struct {
	UserID   string
	Username string
	Role     string
}

// CredentialService owns password hashing and session-token issuance.
type CredentialService interface {
	// HashPassword applies a salted, slow one-way hash. Repeated calls with
	// the same password yield different hash strings.
	HashPassword(password string) (string, error)
	// CheckPassword reports whether password produced hash. Malformed
	// hashes simply report false.
	CheckPassword(password, hash string) bool
	// IssueToken signs a time-bound token for the given user.
	IssueToken(user *domain.User) (string, error)
	// ParseToken verifies signature and expiry and returns the claims.
	ParseToken(token string) (*TokenClaims, error)
}
