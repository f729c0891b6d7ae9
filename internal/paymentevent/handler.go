package paymentevent

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/database"
	paymenteventDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/paymentevent"
	"github.com/frahmantamala/donation-management/internal/transport"
)

type ServiceAPI interface {
	Ingest(ctx context.Context, dto IngestEventDTO) (*IngestResult, error)
	GetByEventID(eventID string) (*paymenteventDatamodel.PaymentEvent, error)
	ListByDonation(donationID uuid.UUID) ([]*paymenteventDatamodel.PaymentEvent, error)
}

type WebhookHandler struct {
	*transport.BaseHandler
	service ServiceAPI
	logger  *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		service:     service,
		logger:      logger,
	}
}

type callbackResponse struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	AlreadyProcessed bool   `json:"already_processed,omitempty"`
}

// HandlePaymentCallback receives provider webhook pushes. Always answers 200
// for replays so the provider stops retrying.
func (h *WebhookHandler) HandlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, SourceWebhook)
}

// HandleReconEvent receives notifications pulled by the reconciliation job.
func (h *WebhookHandler) HandleReconEvent(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, SourceRecon)
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request, source string) {
	var dto IngestEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error("invalid payment callback body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dto.Source = source

	h.logger.Info("received payment notification",
		"event_id", dto.EventID,
		"donation_reference", dto.DonationReference,
		"source", source,
		"status", dto.Status)

	result, err := h.service.Ingest(r.Context(), dto)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			h.WriteJSON(w, appErr.StatusCode, internal.Response{Error: appErr})
			return
		}
		h.logger.Error("failed to process payment notification", "error", err, "event_id", dto.EventID)
		h.WriteError(w, http.StatusInternalServerError, "failed to process payment notification")
		return
	}

	msg := "notification recorded"
	if result.AlreadyProcessed {
		msg = "already processed"
	}

	h.WriteJSON(w, http.StatusOK, callbackResponse{
		Status:           "success",
		Message:          msg,
		AlreadyProcessed: result.AlreadyProcessed,
	})
}

// GetEvent returns a single stored notification by its provider event id.
func (h *WebhookHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "event_id")
	if eventID == "" {
		h.WriteError(w, http.StatusBadRequest, "event_id is required")
		return
	}

	ev, err := h.service.GetByEventID(eventID)
	if err != nil {
		if database.IsNotFound(err) {
			h.WriteError(w, http.StatusNotFound, "payment event not found")
			return
		}
		h.logger.Error("failed to load payment event", "error", err, "event_id", eventID)
		h.WriteError(w, http.StatusInternalServerError, "failed to load payment event")
		return
	}

	h.WriteJSON(w, http.StatusOK, ev)
}

// ListDonationEvents returns every notification recorded for a donation,
// oldest first, including ones appended after the donation resolved.
func (h *WebhookHandler) ListDonationEvents(w http.ResponseWriter, r *http.Request) {
	donationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid donation id")
		return
	}

	events, err := h.service.ListByDonation(donationID)
	if err != nil {
		h.logger.Error("failed to list payment events", "error", err, "donation_id", donationID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list payment events")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
