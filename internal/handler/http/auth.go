package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/response"
)

type AuthHandler interface {
	AdminLogin(w http.ResponseWriter, r *http.Request)
	StaffLogin(w http.ResponseWriter, r *http.Request)
}

type AuthHandlerImpl struct {
	authService auth.AuthService
}

func NewAuthHandler(authService auth.AuthService) AuthHandler {
	return &AuthHandlerImpl{
		authService: authService,
	}
}

// AdminLogin implements AuthHandler.
func (a *AuthHandlerImpl) AdminLogin(w http.ResponseWriter, r *http.Request) {
	a.login(w, r, a.authService.AdminLogin)
}

// StaffLogin implements AuthHandler.
func (a *AuthHandlerImpl) StaffLogin(w http.ResponseWriter, r *http.Request) {
	a.login(w, r, a.authService.StaffLogin)
}

type loginFunc func(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error)

func (a *AuthHandlerImpl) login(w http.ResponseWriter, r *http.Request, fn loginFunc) {
	var loginReq auth.LoginRequest
	if !decodeJSON(w, r, &loginReq) {
		return
	}

	if err := loginReq.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	token, err := fn(r.Context(), loginReq)
	if err != nil {
		slog.Info("Login failed", "path", r.URL.Path, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Login successful", token)
}
