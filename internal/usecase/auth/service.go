package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"skill-journal/internal/docstore"
	"skill-journal/internal/domain/user"
	"skill-journal/internal/infrastructure/oauth"
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidInput           = errors.New("invalid input")
	ErrWeakPassword           = errors.New("password must be at least 8 characters and mix upper and lower case letters, digits and symbols")
	ErrInternal               = errors.New("internal error")
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// Service owns accounts: passwords, OAuth identities and the public profile
// document mirrored into the document store.
type Service struct {
	users    user.Repository
	profiles docstore.Store
	oauth    oauth.Exchanger
	log      *slog.Logger
	cost     int
}

func NewService(users user.Repository, profiles docstore.Store, ex oauth.Exchanger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		profiles: profiles,
		oauth:    ex,
		log:      logger.With(slog.String("component", "auth")),
		cost:     bcrypt.DefaultCost,
	}
}

// WithCost lowers the bcrypt cost; for tests.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || !strings.Contains(email, "@") || name == "" {
		return user.User{}, ErrInvalidInput
	}
	if !isStrongPassword(in.Password) {
		return user.User{}, ErrWeakPassword
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return user.User{}, ErrEmailAlreadyRegistered
	} else if !errors.Is(err, user.ErrNotFound) {
		s.log.Error("lookup email failed", slog.Any("error", err))
		return user.User{}, ErrInternal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return user.User{}, ErrInternal
	}

	u := user.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Provider:     user.ProviderPassword,
	}
	if err := s.create(ctx, u); err != nil {
		return user.User{}, err
	}
	return sanitizeUser(u), nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (user.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return user.User{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidCredentials
		}
		s.log.Error("lookup email failed", slog.Any("error", err))
		return user.User{}, ErrInternal
	}
	if u.PasswordHash == "" {
		return user.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return user.User{}, ErrInvalidCredentials
	}
	return sanitizeUser(u), nil
}

// LoginOAuth signs in with a provider code. A new identity is linked to an
// existing account with the same email, or creates one.
func (s *Service) LoginOAuth(ctx context.Context, provider user.Provider, code string) (user.User, error) {
	if s.oauth == nil {
		return user.User{}, oauth.ErrUnknownProvider
	}
	p, err := s.oauth.Exchange(ctx, provider, code)
	if err != nil {
		if errors.Is(err, oauth.ErrUnknownProvider) {
			return user.User{}, err
		}
		s.log.Warn("oauth exchange failed", slog.String("provider", string(provider)), slog.Any("error", err))
		return user.User{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByProvider(ctx, provider, p.Subject)
	if err == nil {
		return sanitizeUser(u), nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, ErrInternal
	}

	u, err = s.users.GetByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if err := s.users.LinkProvider(ctx, u.ID, provider, p.Subject); err != nil {
			s.log.Error("link provider failed", slog.String("user_id", u.ID.String()), slog.Any("error", err))
			return user.User{}, ErrInternal
		}
		u.Provider, u.ProviderSubject = provider, p.Subject
		return sanitizeUser(u), nil
	case !errors.Is(err, user.ErrNotFound):
		return user.User{}, ErrInternal
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.SplitN(p.Email, "@", 2)[0]
	}
	u = user.User{
		ID:              uuid.New(),
		Email:           p.Email,
		Name:            name,
		Provider:        provider,
		ProviderSubject: p.Subject,
	}
	if err := s.create(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	return sanitizeUser(u), nil
}

func (s *Service) create(ctx context.Context, u user.User) error {
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return ErrEmailAlreadyRegistered
		}
		s.log.Error("create user failed", slog.Any("error", err))
		return ErrInternal
	}
	// Profile mirroring is best effort.
	if s.profiles != nil {
		if err := s.profiles.Set(ctx, user.ProfilesCollection, u.ID.String(), user.ProfileFields(u)); err != nil {
			s.log.Warn("write profile failed", slog.String("user_id", u.ID.String()), slog.Any("error", err))
		}
	}
	s.log.Info("account created", slog.String("user_id", u.ID.String()), slog.String("provider", string(u.Provider)))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isStrongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

func sanitizeUser(u user.User) user.User {
	u.PasswordHash = ""
	return u
}
