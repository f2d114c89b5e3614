package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"skill-journal/internal/database"
	"skill-journal/internal/domain/user"
)

const uniqueViolation = "23505"

var (
	psql        = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	userColumns = []string{"id", "email", "name", "password_hash", "provider", "provider_subject", "created_at", "updated_at"}
)

type PostgresUserRepository struct {
	db database.Querier
}

var _ user.Repository = (*PostgresUserRepository)(nil)

func NewPostgresUserRepository(db database.Querier) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u user.User) error {
	query, args, err := psql.Insert("users").
		Columns("id", "email", "name", "password_hash", "provider", "provider_subject").
		Values(u.ID, strings.ToLower(u.Email), u.Name, u.PasswordHash, string(u.Provider), u.ProviderSubject).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *PostgresUserRepository) GetByProvider(ctx context.Context, provider user.Provider, subject string) (user.User, error) {
	if subject == "" {
		return user.User{}, user.ErrNotFound
	}
	return r.getOne(ctx, sq.Eq{"provider": string(provider), "provider_subject": subject})
}

// LinkProvider attaches an OAuth identity to an existing account.
func (r *PostgresUserRepository) LinkProvider(ctx context.Context, id uuid.UUID, provider user.Provider, subject string) error {
	query, args, err := psql.Update("users").
		Set("provider", string(provider)).
		Set("provider_subject", subject).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrAlreadyExists
		}
		return fmt.Errorf("link provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where sq.Eq) (user.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return user.User{}, err
	}

	var (
		u        user.User
		provider string
	)
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &provider, &u.ProviderSubject, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("select user: %w", err)
	}
	u.Provider = user.Provider(provider)
	return u, nil
}
