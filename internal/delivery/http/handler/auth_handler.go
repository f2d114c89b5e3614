package handler

import (
	"github.com/gofiber/fiber/v3"

	"skill-journal/internal/delivery/http/dto"
	"skill-journal/internal/delivery/http/middleware"
	"skill-journal/internal/domain/user"
	"skill-journal/internal/pkg/response"
	"skill-journal/internal/usecase"
	ucauth "skill-journal/internal/usecase/auth"
)

type AuthHandler struct {
	uc usecase.AuthUsecase
}

func NewAuthHandler(uc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

func (h *AuthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/oauth/:provider", h.OAuth)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	s, err := h.uc.Register(c.Context(), ucauth.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return mapAuthError(err)
	}
	return response.Success(c, fiber.StatusCreated, "Account created", dto.NewSessionResponse(s))
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	s, err := h.uc.Login(c.Context(), ucauth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return mapAuthError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSessionResponse(s))
}

func (h *AuthHandler) OAuth(c fiber.Ctx) error {
	var req dto.OAuthRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	provider := user.Provider(c.Params("provider"))
	if provider != user.ProviderGoogle && provider != user.ProviderGitHub {
		return middleware.NewAppError(fiber.StatusNotFound, "Unknown sign-in provider", nil, nil)
	}

	s, err := h.uc.LoginOAuth(c.Context(), provider, req.Code)
	if err != nil {
		return mapAuthError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSessionResponse(s))
}

// Refresh takes the refresh token from the body or, failing that, the
// Authorization header.
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	tok, err := refreshToken(c)
	if err != nil {
		return err
	}

	pair, err := h.uc.Refresh(c.Context(), tok)
	if err != nil {
		return mapAuthError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, pair)
}

func (h *AuthHandler) Logout(c fiber.Ctx) error {
	tok, err := refreshToken(c)
	if err != nil {
		return err
	}
	if err := h.uc.Logout(c.Context(), tok); err != nil {
		return mapAuthError(err)
	}
	return response.Success(c, fiber.StatusOK, "Signed out", nil)
}

func refreshToken(c fiber.Ctx) (string, error) {
	var req dto.RefreshRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return "", badRequest(err)
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	if tok, ok := middleware.BearerToken(c.Get("Authorization")); ok {
		return tok, nil
	}
	return "", middleware.Unauthenticated("Unauthorized", nil)
}
