package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Sazoks/apptrix-test/internal/domain/model"
	pgrepo "github.com/Sazoks/apptrix-test/internal/repo/postgres"
	matchsvc "github.com/Sazoks/apptrix-test/internal/services/match"
	proximitysvc "github.com/Sazoks/apptrix-test/internal/services/proximity"
	"github.com/Sazoks/apptrix-test/internal/transport/http/dto"
	httperrors "github.com/Sazoks/apptrix-test/internal/transport/http/errors"
)

// UserDirectory is the slice of the directory the plain (no-distance)
// listing needs.
type UserDirectory interface {
	List(ctx context.Context, filter pgrepo.ListFilter) ([]model.User, error)
}

type ClientsHandler struct {
	match     *matchsvc.Service
	proximity *proximitysvc.Service
	directory UserDirectory
	maxRadius float64
}

func NewClientsHandler(match *matchsvc.Service, proximity *proximitysvc.Service, directory UserDirectory, maxRadiusKM float64) *ClientsHandler {
	return &ClientsHandler{
		match:     match,
		proximity: proximity,
		directory: directory,
		maxRadius: maxRadiusKM,
	}
}

// Like handles POST /api/clients/{id}/like.
func (h *ClientsHandler) Like(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actingUserID(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "acting user is not identified")
		return
	}
	if h.match == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || targetID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid target user id")
		return
	}

	outcome, err := h.match.Rate(r.Context(), actorID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, matchsvc.ErrUserNotFound):
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
				Code:    "USER_NOT_FOUND",
				Message: "Такого пользователя нет.",
			})
		case errors.Is(err, matchsvc.ErrSelfRating):
			writeBadRequest(w, "SELF_RATING", "Вы не можете оценить себя.")
		case errors.Is(err, matchsvc.ErrAlreadyRated):
			httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
				Code:    "ALREADY_RATED",
				Message: "Вы уже оценили этого пользователя.",
			})
		case errors.Is(err, matchsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid like request")
		default:
			if tf, ok := matchsvc.IsTooFast(err); ok {
				httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
					Code:          "TOO_FAST",
					Message:       "too many likes, slow down",
					RetryAfterSec: tf.RetryAfter(),
				})
				return
			}
			writeInternal(w, "INTERNAL_ERROR", "failed to rate user")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LikeResponse{
		Msg:         outcome.Message,
		LoversEmail: outcome.LoverEmail,
	})
}

// List handles GET /api/clients/list. Without distance_to_user it is a
// plain directory listing; with it the proximity filter annotates and
// filters by great-circle distance from the acting user.
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actingUserID(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "acting user is not identified")
		return
	}

	query := r.URL.Query()
	filter := pgrepo.ListFilter{
		Gender:    query.Get("gender"),
		FirstName: query.Get("first_name"),
		LastName:  query.Get("last_name"),
	}

	rawDistance := strings.TrimSpace(query.Get("distance_to_user"))
	if rawDistance == "" {
		h.listPlain(w, r, filter)
		return
	}

	maxKm, err := strconv.ParseFloat(rawDistance, 64)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid distance_to_user")
		return
	}
	if h.maxRadius > 0 && maxKm > h.maxRadius {
		maxKm = h.maxRadius
	}
	if h.proximity == nil {
		writeInternal(w, "PROXIMITY_SERVICE_UNAVAILABLE", "proximity service is unavailable")
		return
	}

	candidates, err := h.proximity.ListWithin(r.Context(), actorID, maxKm, proximitysvc.Filters{
		Gender:    filter.Gender,
		FirstName: filter.FirstName,
		LastName:  filter.LastName,
		Nearest:   query.Get("nearest") == "true",
	})
	if err != nil {
		switch {
		case errors.Is(err, proximitysvc.ErrOriginNotFound):
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
				Code:    "ORIGIN_NOT_FOUND",
				Message: "acting user has no profile coordinate",
			})
		case errors.Is(err, proximitysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid proximity request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to list users")
		}
		return
	}

	items := make([]dto.UserWithDistanceResponse, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, dto.UserWithDistanceResponse{
			UserResponse: mapUser(c.User),
			DistanceKM:   c.DistanceKM,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.UserDistanceListResponse{Items: items})
}

// Lovers handles GET /api/clients/lovers.
func (h *ClientsHandler) Lovers(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actingUserID(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "acting user is not identified")
		return
	}
	if h.match == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	admirers, err := h.match.Admirers(r.Context(), actorID)
	if err != nil {
		switch {
		case errors.Is(err, matchsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid lovers request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to list lovers")
		}
		return
	}

	items := make([]dto.UserResponse, 0, len(admirers))
	for _, u := range admirers {
		items = append(items, mapUser(u))
	}

	httperrors.Write(w, http.StatusOK, dto.UserListResponse{Items: items})
}

func (h *ClientsHandler) listPlain(w http.ResponseWriter, r *http.Request, filter pgrepo.ListFilter) {
	if h.directory == nil {
		writeInternal(w, "DIRECTORY_UNAVAILABLE", "user directory is unavailable")
		return
	}

	users, err := h.directory.List(r.Context(), filter)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list users")
		return
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, mapUser(u))
	}

	httperrors.Write(w, http.StatusOK, dto.UserListResponse{Items: items})
}

func mapUser(u model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Gender:    u.Gender,
	}
}

// actingUserID reads the authenticated user from the X-User-ID header the
// auth gateway sets. Token validation happens upstream.
func actingUserID(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}
