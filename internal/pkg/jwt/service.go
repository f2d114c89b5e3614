package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	TokenType string    `json:"token_type"`

	jwtlib.RegisteredClaims
}

// TokenID is the jti used to revoke a refresh token.
func (c Claims) TokenID() string { return c.ID }

// Expiry returns the zero time when the token has no expiry.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type Subject struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

type Pair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type Service interface {
	Issue(sub Subject) (Pair, error)
	ValidateAccess(token string) (Claims, error)
	ValidateRefresh(token string) (Claims, error)
}

type HMACService struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string

	accessExpiresIn  time.Duration
	refreshExpiresIn time.Duration

	now func() time.Time
}

var _ Service = (*HMACService)(nil)

func NewHMACService(accessSecret, refreshSecret, issuer string, accessExpiresIn, refreshExpiresIn time.Duration) *HMACService {
	return &HMACService{
		accessSecret:     []byte(accessSecret),
		refreshSecret:    []byte(refreshSecret),
		issuer:           issuer,
		accessExpiresIn:  accessExpiresIn,
		refreshExpiresIn: refreshExpiresIn,
		now:              time.Now,
	}
}

// WithClock replaces the time source; for tests.
func (s *HMACService) WithClock(now func() time.Time) *HMACService {
	s.now = now
	return s
}

func (s *HMACService) Issue(sub Subject) (Pair, error) {
	access, accessExp, err := s.generate(TokenTypeAccess, sub)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := s.generate(TokenTypeRefresh, Subject{UserID: sub.UserID})
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *HMACService) ValidateAccess(token string) (Claims, error) {
	return s.validate(token, TokenTypeAccess)
}

func (s *HMACService) ValidateRefresh(token string) (Claims, error) {
	return s.validate(token, TokenTypeRefresh)
}

func (s *HMACService) generate(tokenType string, sub Subject) (string, time.Time, error) {
	secret, expIn, err := s.secretAndExpiry(tokenType)
	if err != nil {
		return "", time.Time{}, err
	}
	if sub.UserID == uuid.Nil {
		return "", time.Time{}, ErrTokenInvalid
	}

	now := s.now().UTC()
	exp := now.Add(expIn)
	c := Claims{
		UserID:    sub.UserID,
		Email:     sub.Email,
		Name:      sub.Name,
		TokenType: tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   sub.UserID.String(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(exp),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (s *HMACService) validate(token, tokenType string) (Claims, error) {
	secret, _, err := s.secretAndExpiry(tokenType)
	if err != nil {
		return Claims{}, err
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}

	var c Claims
	tok, err := jwtlib.NewParser(opts...).ParseWithClaims(token, &c, func(*jwtlib.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid || c.TokenType != tokenType || c.UserID == uuid.Nil {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

func (s *HMACService) secretAndExpiry(tokenType string) ([]byte, time.Duration, error) {
	switch tokenType {
	case TokenTypeAccess:
		if len(s.accessSecret) == 0 || s.accessExpiresIn <= 0 {
			return nil, 0, ErrTokenInvalid
		}
		return s.accessSecret, s.accessExpiresIn, nil
	case TokenTypeRefresh:
		if len(s.refreshSecret) == 0 || s.refreshExpiresIn <= 0 {
			return nil, 0, ErrTokenInvalid
		}
		return s.refreshSecret, s.refreshExpiresIn, nil
	default:
		return nil, 0, ErrTokenInvalid
	}
}
