package dto

import (
	"skill-journal/internal/pkg/jwt"
	"skill-journal/internal/usecase"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OAuthRequest struct {
	Code string `json:"code"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionResponse struct {
	User UserResponse `json:"user"`
	jwt.Pair
}

func NewSessionResponse(s usecase.Session) SessionResponse {
	return SessionResponse{User: NewUserResponse(s.User), Pair: s.Tokens}
}
