package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/marketplace-api/internal/api/shared"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/service"
)

// UserHandler serves profiles, the user directory and the follow graph.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, log *slog.Logger) *UserHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UserHandler{users: users, logger: log.With(slog.String("component", "user_handler"))}
}

// ListUsers handles GET /users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := newQueryParams(r)
	filter := query.UserFilter{Search: q.str("searchParam"), Location: q.str("location")}
	page := q.page()
	if err := q.err(); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.users.ListUsers(r.Context(), userID, filter, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, query.MapResult(result, userToResponse))
}

// GetMe handles GET /users/me.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get profile")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateMe handles PUT /users/me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, req.update())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update profile")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// GetUser handles GET /users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// RecalculateCounters handles POST /users/recalculate-counters.
func (h *UserHandler) RecalculateCounters(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	updated, err := h.users.RecalculateAllCounters(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to recalculate counters")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("follower counters recalculated",
		slog.String("requested_by", userID.String()),
		slog.Int64("updated", updated))
	shared.RespondWithJSON(w, r, http.StatusOK, RecalculateResponse{Updated: updated})
}

// Follow handles POST /users/{id}/follow.
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.users.Follow(r.Context(), targetID, actorID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to follow user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Unfollow handles DELETE /users/{id}/unfollow.
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.users.Unfollow(r.Context(), targetID, actorID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to unfollow user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
