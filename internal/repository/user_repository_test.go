package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skill-journal/internal/domain/user"
)

const selectUser = "SELECT id, email, name, password_hash, provider, provider_subject, created_at, updated_at FROM users"

func newRepo(t *testing.T) (*PostgresUserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresUserRepository(mock), mock
}

func userRows(u user.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "email", "name", "password_hash", "provider", "provider_subject", "created_at", "updated_at"}).
		AddRow(u.ID, u.Email, u.Name, u.PasswordHash, string(u.Provider), u.ProviderSubject, u.CreatedAt, u.UpdatedAt)
}

func TestCreateUser(t *testing.T) {
	repo, mock := newRepo(t)
	u := user.User{ID: uuid.New(), Email: "Ann@Example.com", Name: "Ann", PasswordHash: "hash", Provider: user.ProviderPassword}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id,email,name,password_hash,provider,provider_subject) VALUES ($1,$2,$3,$4,$5,$6)")).
		WithArgs(u.ID, "ann@example.com", "Ann", "hash", "password", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), user.User{ID: uuid.New(), Email: "a@example.com"})
	assert.ErrorIs(t, err, user.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail(t *testing.T) {
	repo, mock := newRepo(t)
	want := user.User{
		ID:        uuid.New(),
		Email:     "ann@example.com",
		Name:      "Ann",
		Provider:  user.ProviderGoogle,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectQuery(regexp.QuoteMeta(selectUser + " WHERE email = $1 LIMIT 1")).
		WithArgs("ann@example.com").
		WillReturnRows(userRows(want))

	got, err := repo.GetByEmail(context.Background(), "  ANN@example.com ")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(selectUser + " WHERE id = $1 LIMIT 1")).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, user.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByProvider(t *testing.T) {
	repo, mock := newRepo(t)
	want := user.User{ID: uuid.New(), Email: "g@example.com", Provider: user.ProviderGitHub, ProviderSubject: "42"}

	mock.ExpectQuery(regexp.QuoteMeta(selectUser + " WHERE provider = $1 AND provider_subject = $2 LIMIT 1")).
		WithArgs("github", "42").
		WillReturnRows(userRows(want))

	got, err := repo.GetByProvider(context.Background(), user.ProviderGitHub, "42")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)

	_, err = repo.GetByProvider(context.Background(), user.ProviderGitHub, "")
	assert.ErrorIs(t, err, user.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkProvider(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET provider = $1, provider_subject = $2, updated_at = now() WHERE id = $3")).
		WithArgs("google", "sub-1", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE users").
		WithArgs("google", "sub-1", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.LinkProvider(context.Background(), id, user.ProviderGoogle, "sub-1"))
	assert.ErrorIs(t, repo.LinkProvider(context.Background(), id, user.ProviderGoogle, "sub-1"), user.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
