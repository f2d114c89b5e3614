package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"skill-journal/internal/domain/user"
	"skill-journal/internal/pkg/jwt"
	"skill-journal/internal/session"
	ucauth "skill-journal/internal/usecase/auth"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrInternal            = errors.New("internal error")
)

// Revoker remembers refresh tokens that must no longer be accepted.
type Revoker interface {
	// Revoke reports whether this call revoked jti, false when it already was.
	Revoke(ctx context.Context, jti string, until time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Session struct {
	User   user.User
	Tokens jwt.Pair
}

type Auth struct {
	accounts *ucauth.Service
	jwt      jwt.Service
	revoked  Revoker
	log      *slog.Logger
}

func NewAuthUsecase(accounts *ucauth.Service, jwtSvc jwt.Service, revoked Revoker, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auth{accounts: accounts, jwt: jwtSvc, revoked: revoked, log: logger.With(slog.String("component", "auth.tokens"))}
}

func (a *Auth) Register(ctx context.Context, in ucauth.RegisterInput) (Session, error) {
	u, err := a.accounts.Register(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return a.issue(u)
}

func (a *Auth) Login(ctx context.Context, in ucauth.LoginInput) (Session, error) {
	u, err := a.accounts.Login(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return a.issue(u)
}

func (a *Auth) LoginOAuth(ctx context.Context, provider user.Provider, code string) (Session, error) {
	u, err := a.accounts.LoginOAuth(ctx, provider, code)
	if err != nil {
		return Session{}, err
	}
	return a.issue(u)
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair
// is issued. Only the caller that wins the revocation gets a pair.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (jwt.Pair, error) {
	claims, err := a.checkRefresh(ctx, refreshToken)
	if err != nil {
		return jwt.Pair{}, err
	}
	u, err := a.accounts.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return jwt.Pair{}, ErrInvalidRefreshToken
		}
		return jwt.Pair{}, ErrInternal
	}
	if !a.revoke(ctx, claims) {
		return jwt.Pair{}, ErrTokenRevoked
	}

	s, err := a.issue(u)
	if err != nil {
		return jwt.Pair{}, err
	}
	return s.Tokens, nil
}

func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	claims, err := a.checkRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			return nil
		}
		return err
	}
	a.revoke(ctx, claims)
	return nil
}

// Verify maps an access token to the identity it was issued for.
func (a *Auth) Verify(_ context.Context, accessToken string) (session.Identity, error) {
	claims, err := a.jwt.ValidateAccess(accessToken)
	if err != nil {
		return session.Identity{}, err
	}
	return session.Identity{UserID: claims.UserID.String(), Email: claims.Email, Name: claims.Name}, nil
}

func (a *Auth) Me(ctx context.Context, id uuid.UUID) (user.User, error) {
	return a.accounts.Get(ctx, id)
}

func (a *Auth) checkRefresh(ctx context.Context, token string) (jwt.Claims, error) {
	if token == "" {
		return jwt.Claims{}, ErrUnauthorized
	}
	claims, err := a.jwt.ValidateRefresh(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return jwt.Claims{}, ErrRefreshTokenExpired
		}
		return jwt.Claims{}, ErrInvalidRefreshToken
	}
	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(ctx, claims.TokenID())
		if err != nil {
			a.log.Warn("denylist lookup failed", slog.Any("error", err))
		}
		if revoked {
			return jwt.Claims{}, ErrTokenRevoked
		}
	}
	return claims, nil
}

// revoke is false only when another caller revoked the token first. Denylist
// errors are logged and do not block the caller.
func (a *Auth) revoke(ctx context.Context, claims jwt.Claims) bool {
	if a.revoked == nil {
		return true
	}
	first, err := a.revoked.Revoke(ctx, claims.TokenID(), claims.Expiry())
	if err != nil {
		a.log.Warn("revoke refresh token failed", slog.String("user_id", claims.UserID.String()), slog.Any("error", err))
		return true
	}
	return first
}

func (a *Auth) issue(u user.User) (Session, error) {
	pair, err := a.jwt.Issue(jwt.Subject{UserID: u.ID, Email: u.Email, Name: u.Name})
	if err != nil {
		a.log.Error("issue tokens failed", slog.Any("error", err))
		return Session{}, ErrInternal
	}
	return Session{User: u, Tokens: pair}, nil
}

type AuthUsecase interface {
	Register(ctx context.Context, in ucauth.RegisterInput) (Session, error)
	Login(ctx context.Context, in ucauth.LoginInput) (Session, error)
	LoginOAuth(ctx context.Context, provider user.Provider, code string) (Session, error)
	Refresh(ctx context.Context, refreshToken string) (jwt.Pair, error)
	Logout(ctx context.Context, refreshToken string) error
	Verify(ctx context.Context, accessToken string) (session.Identity, error)
	Me(ctx context.Context, id uuid.UUID) (user.User, error)
}

var _ AuthUsecase = (*Auth)(nil)
