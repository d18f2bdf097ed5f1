package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/marketplace-api/internal/api/shared"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/service"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	users      service.UserService
	jwtService auth.JWTService
	logger     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users service.UserService, jwtService auth.JWTService, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		users:      users,
		jwtService: jwtService,
		logger:     log.With(slog.String("component", "auth_handler")),
	}
}

// respondWithTokens issues a token pair for user and writes the AuthResponse.
func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	pair, err := h.jwtService.IssueTokenPair(r.Context(), user.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}
	shared.RespondWithJSON(w, r, status, newAuthResponse(pair, user))
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.Register(r.Context(), req.input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	h.respondWithTokens(w, r, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	h.respondWithTokens(w, r, http.StatusOK, user)
}

// Refresh handles POST /auth/refresh. The refresh token is exchanged for a
// fresh pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(r.Context(), h.logger).Warn("refresh token for missing user",
				slog.String("user_id", claims.UserID.String()))
			HandleAPIError(w, r, auth.ErrInvalidRefreshToken, "")
			return
		}
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}

	h.respondWithTokens(w, r, http.StatusOK, user)
}

// CheckEmail handles GET /auth/check-email.
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		HandleAPIError(w, r, domain.NewValidationError("email", "is required"), "")
		return
	}

	available, err := h.users.EmailAvailable(r.Context(), email)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to check email")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, AvailabilityResponse{Available: available})
}

// CheckUsername handles GET /auth/check-username.
func (h *AuthHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		HandleAPIError(w, r, domain.NewValidationError("username", "is required"), "")
		return
	}

	available, err := h.users.UsernameAvailable(r.Context(), username)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to check username")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, AvailabilityResponse{Available: available})
}
