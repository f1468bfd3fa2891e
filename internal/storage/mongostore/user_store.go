package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskhub/taskhub/internal/core/domain"
)

type userDoc struct {
	ID                  string     `bson:"_id"`
	Username            string     `bson:"username"`
	Email               string     `bson:"email"`
	PasswordHash        string     `bson:"passwordHash"`
	CreatedAt           time.Time  `bson:"createdAt"`
	LastLoginAt         *time.Time `bson:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `bson:"failedLoginAttempts"`
	LockoutEnd          *time.Time `bson:"lockoutEnd,omitempty"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:                  u.ID.String(),
		Username:            u.Username,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		CreatedAt:           u.CreatedAt,
		LastLoginAt:         u.LastLoginAt,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LockoutEnd:          u.LockoutEnd,
	}
}

func (d userDoc) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:                  id,
		Username:            d.Username,
		Email:               d.Email,
		PasswordHash:        d.PasswordHash,
		CreatedAt:           d.CreatedAt,
		LastLoginAt:         d.LastLoginAt,
		FailedLoginAttempts: d.FailedLoginAttempts,
		LockoutEnd:          d.LockoutEnd,
	}, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"_id": id.String()})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) AddUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.users.InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": user.ID.String()}, toUserDoc(user))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
