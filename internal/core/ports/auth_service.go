package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
)

// AuthService implements registration, login with lockout tracking, and
// session token issuance.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	// Login accepts a username or an email. On success the returned token is
	// a signed session JWT; on repeated failure the account is locked.
	Login(ctx context.Context, usernameOrEmail, password string) (string, *domain.User, error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}
