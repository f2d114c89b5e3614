package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByProvider(ctx context.Context, provider Provider, subject string) (User, error)
	LinkProvider(ctx context.Context, id uuid.UUID, provider Provider, subject string) error
}
