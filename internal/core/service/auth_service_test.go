package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/storage/memory"
)

func newAuthService() (*AuthService, *memory.Store) {
	store := memory.New()
	return NewAuthService(store, "test-secret", time.Hour, zerolog.Nop()), store
}

func register(t *testing.T, svc *AuthService, username, email, password string) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), username, email, password)
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return user
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, store := newAuthService()
	user := register(t, svc, "alice", "alice@example.com", "s3cretpass")

	stored, err := store.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "s3cretpass" {
		t.Fatalf("password must be stored as a bcrypt hash, got %q", stored.PasswordHash)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newAuthService()
	register(t, svc, "alice", "alice@example.com", "s3cretpass")

	if _, err := svc.Register(context.Background(), "other", "alice@example.com", "pw123456"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("duplicate email: expected ErrUserExists, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "alice", "new@example.com", "pw123456"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("duplicate username: expected ErrUserExists, got %v", err)
	}
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	svc, _ := newAuthService()
	user := register(t, svc, "alice", "alice@example.com", "s3cretpass")

	for _, identifier := range []string{"alice", "alice@example.com"} {
		token, got, err := svc.Login(context.Background(), identifier, "s3cretpass")
		if err != nil {
			t.Fatalf("Login(%s): %v", identifier, err)
		}
		if got.ID != user.ID {
			t.Fatalf("wrong user returned")
		}

		claims := jwt.MapClaims{}
		_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		if err != nil {
			t.Fatalf("token does not verify: %v", err)
		}
		if claims["sub"] != user.ID.String() {
			t.Fatalf("token subject mismatch: %v", claims["sub"])
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService()
	register(t, svc, "alice", "alice@example.com", "s3cretpass")

	if _, _, err := svc.Login(context.Background(), "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUserLooksLikeBadCredentials(t *testing.T) {
	svc, _ := newAuthService()

	if _, _, err := svc.Login(context.Background(), "nobody", "whatever"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	svc, store := newAuthService()
	user := register(t, svc, "alice", "alice@example.com", "s3cretpass")
	ctx := context.Background()

	for i := 0; i < maxFailedAttempts; i++ {
		if _, _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// Even the correct password is refused while locked.
	if _, _, err := svc.Login(ctx, "alice", "s3cretpass"); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	// Expire the lockout; the next successful login resets the counters.
	stored, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	past := time.Now().UTC().Add(-time.Minute)
	stored.LockoutEnd = &past
	if err := store.UpdateUser(ctx, stored); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice", "s3cretpass"); err != nil {
		t.Fatalf("login after lockout expiry: %v", err)
	}
	stored, err = store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.FailedLoginAttempts != 0 || stored.LockoutEnd != nil {
		t.Fatalf("successful login must reset lockout state")
	}
}
