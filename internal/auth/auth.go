package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/donation-management/internal/core/scope"
)

// Role names seeded by the role catalog. The set is closed; authorization
// decisions switch on these names, never on role row ids.
const (
	RoleAdmin        = "ADMIN"
	RoleOrganization = "ORGANIZATION"
	RoleAuditor      = "AUDITOR"
	RoleDonor        = "DONOR"
)

// User is the authenticated caller attached to the request context.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Roles          []string   `json:"roles,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// Scope derives the data visibility granted by the user's role set.
func (u *User) Scope() scope.Scope {
	orgID := uuid.Nil
	if u.OrganizationID != nil {
		orgID = *u.OrganizationID
	}
	return scope.ForRoles(u.Roles, orgID, u.ID)
}

type ctxKey string

const ContextUserKey ctxKey = "authUser"

func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ContextUserKey).(*User)
	return user, ok
}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

// TokenGenerator creates tokens and expiration times.
type TokenGenerator interface {
	GenerateAccessToken(userID string, email string) (token string, err error)
	GenerateRefreshToken(userID string, email string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
