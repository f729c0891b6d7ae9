package donation

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/frahmantamala/donation-management/internal/auth"
	"github.com/frahmantamala/donation-management/internal/core/scope"
	"github.com/frahmantamala/donation-management/internal/transport"
	"github.com/frahmantamala/donation-management/pkg/logger"
)

type ServiceAPI interface {
	CreateDonation(dto CreateDonationDTO, userID, organizationID *uuid.UUID) (*Donation, error)
	GetDonation(id uuid.UUID, sc scope.Scope) (*Donation, error)
	ListDonations(sc scope.Scope, limit, offset int) ([]*Donation, error)
	Stats(sc scope.Scope) (*StatsDTO, error)
	ExpireDonation(ctx context.Context, id uuid.UUID) (*Donation, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// CreateDonation accepts a donation intent. Works for both anonymous donors
// and logged-in users; an authenticated caller gets the record attached to
// their account and organization.
func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var dto CreateDonationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateDonation: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var userID, orgID *uuid.UUID
	if user, ok := auth.UserFromContext(r.Context()); ok && user != nil {
		userID = &user.ID
		orgID = user.OrganizationID
	}

	d, err := h.Service.CreateDonation(dto, userID, orgID)
	if err != nil {
		h.Logger.Error("CreateDonation: service error", "error", err, "reference_code", dto.ReferenceCode)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateDonation: donation created",
		"donation_id", d.ID,
		"reference_code", d.ReferenceCode,
		"amount_gtq", d.AmountGTQ.StringFixed(2))

	h.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) GetDonation(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.Logger.Error("GetDonation: invalid donation ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid donation ID")
		return
	}

	d, err := h.Service.GetDonation(id, user.Scope())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 20
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	donations, err := h.Service.ListDonations(user.Scope(), limit, offset)
	if err != nil {
		h.Logger.Error("ListDonations: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{
		Donations: donations,
		Limit:     limit,
		Offset:    offset,
	})
}

// ExpireDonation lets an operator expire a pending donation by hand, e.g.
// when the provider confirms a payment session was abandoned.
func (h *Handler) ExpireDonation(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.Logger.Error("ExpireDonation: invalid donation ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid donation ID")
		return
	}

	d, err := h.Service.ExpireDonation(r.Context(), id)
	if err != nil {
		h.Logger.Error("ExpireDonation: service error", "error", err, "donation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.Service.Stats(user.Scope())
	if err != nil {
		h.Logger.Error("GetStats: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}
