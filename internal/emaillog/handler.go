package emaillog

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/auth"
	"github.com/frahmantamala/donation-management/internal/core/scope"
	"github.com/frahmantamala/donation-management/internal/core/status"
	"github.com/frahmantamala/donation-management/internal/donation"
	"github.com/frahmantamala/donation-management/internal/transport"
	"github.com/frahmantamala/donation-management/pkg/logger"
)

// DonationAPI is the slice of the donation service the email handlers need.
type DonationAPI interface {
	GetDonation(id uuid.UUID, sc scope.Scope) (*donation.Donation, error)
}

type Handler struct {
	*transport.BaseHandler
	Service   *Service
	Donations DonationAPI
}

func NewHandler(svc *Service, donations DonationAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Donations:   donations,
	}
}

// ResendReceipt handles POST /donations/{id}/resend-receipt. Only approved
// donations carry a receipt to resend.
func (h *Handler) ResendReceipt(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid donation ID")
		return
	}

	d, err := h.Donations.GetDonation(id, user.Scope())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if d.Status != status.DonationApproved {
		h.WriteError(w, http.StatusConflict, "receipt is only available for approved donations")
		return
	}

	entry, err := h.Service.QueueResend(d.ID, d.DonorEmail)
	if err != nil {
		h.Logger.Error("ResendReceipt: service error", "donation_id", d.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusAccepted, entry)
}

// EmailHistory handles GET /donations/{id}/emails.
func (h *Handler) EmailHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid donation ID")
		return
	}

	// Scope check happens through the donation lookup.
	if _, err := h.Donations.GetDonation(id, user.Scope()); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	logs, err := h.Service.History(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, logs)
}

// MailerReportDTO is the delivery report posted by the email provider.
type MailerReportDTO struct {
	EmailLogID    uuid.UUID  `json:"email_log_id"`
	Event         string     `json:"event"`
	ProviderMsgID string     `json:"provider_msg_id,omitempty"`
	Error         string     `json:"error,omitempty"`
	OccurredAt    *time.Time `json:"occurred_at,omitempty"`
}

// HandleMailerReport handles POST /mailer/events from the email provider.
func (h *Handler) HandleMailerReport(w http.ResponseWriter, r *http.Request) {
	var dto MailerReportDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	occurredAt := time.Now()
	if dto.OccurredAt != nil {
		occurredAt = *dto.OccurredAt
	}

	var err error
	switch dto.Event {
	case "sent":
		err = h.Service.MarkSent(dto.EmailLogID, dto.ProviderMsgID, occurredAt)
	case "failed":
		err = h.Service.MarkFailed(dto.EmailLogID, dto.Error)
	case "delivered":
		err = h.Service.MarkDelivered(dto.EmailLogID, occurredAt)
	case "bounced":
		err = h.Service.MarkBounced(dto.EmailLogID, occurredAt)
	default:
		h.WriteError(w, http.StatusBadRequest, "unknown mailer event")
		return
	}

	if err != nil {
		if internal.IsUniquenessViolation(err) {
			// Provider retried a report we already recorded.
			h.WriteJSON(w, http.StatusOK, map[string]string{"status": "already recorded"})
			return
		}
		h.Logger.Error("HandleMailerReport: service error",
			"email_log_id", dto.EmailLogID,
			"event", dto.Event,
			"error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}
