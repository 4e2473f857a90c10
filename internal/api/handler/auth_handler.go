package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"

	"taskmanager/internal/api/middleware"
	"taskmanager/internal/app/service"
	"taskmanager/internal/common"
	"taskmanager/internal/common/security"
)

type AuthHandler struct {
	authService *service.AuthService
	tokens      *security.TokenIssuer
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, tokens *security.TokenIssuer, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{authService: authService, tokens: tokens, logger: logger}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/verify-email", h.verifyEmail)

	r.Group(func(refresh chi.Router) {
		refresh.Use(middleware.Authenticate(h.tokens, security.RefreshToken))
		refresh.Post("/refresh", h.refresh)
	})

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticate(h.tokens, security.AccessToken))
		authed.Post("/logout", h.logout)
		authed.Get("/me", h.me)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}

	profile, err := h.authService.Register(r.Context(), req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, profile)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}

	pair, err := h.authService.Login(r.Context(), req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "email verified"})
}

// refresh runs behind the refresh-token verifier, so the subject is already trusted; the
// raw token is still needed to compare against the stored hash.
func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	pair, err := h.authService.Refresh(r.Context(), userID, jwtauth.TokenFromHeader(r))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	profile, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}
