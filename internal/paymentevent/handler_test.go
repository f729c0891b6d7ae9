package paymentevent_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/donation-management/internal"
	paymenteventDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/paymentevent"
	"github.com/frahmantamala/donation-management/internal/paymentevent"
	"github.com/frahmantamala/donation-management/internal/transport"
)

type mockIngestService struct {
	ingestError error
	result      *paymentevent.IngestResult
	lastDTO     paymentevent.IngestEventDTO
	events      map[string]*paymenteventDatamodel.PaymentEvent
}

func (m *mockIngestService) Ingest(ctx context.Context, dto paymentevent.IngestEventDTO) (*paymentevent.IngestResult, error) {
	m.lastDTO = dto
	if m.ingestError != nil {
		return nil, m.ingestError
	}
	return m.result, nil
}

func (m *mockIngestService) GetByEventID(eventID string) (*paymenteventDatamodel.PaymentEvent, error) {
	if ev, ok := m.events[eventID]; ok {
		return ev, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockIngestService) ListByDonation(donationID uuid.UUID) ([]*paymenteventDatamodel.PaymentEvent, error) {
	var out []*paymenteventDatamodel.PaymentEvent
	for _, ev := range m.events {
		if ev.DonationID == donationID {
			out = append(out, ev)
		}
	}
	return out, nil
}

var _ = ginkgo.Describe("WebhookHandler", func() {
	var (
		handler  *paymentevent.WebhookHandler
		service  *mockIngestService
		recorder *httptest.ResponseRecorder
		logger   *slog.Logger
	)

	callbackBody := func() []byte {
		body, err := json.Marshal(map[string]interface{}{
			"event_id":           "evt-100",
			"donation_reference": "DON-7001",
			"status":             "approved",
			"signature_ok":       true,
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return body
	}

	ginkgo.BeforeEach(func() {
		service = &mockIngestService{
			result: &paymentevent.IngestResult{
				EventID:        "evt-100",
				Transitioned:   true,
				DonationStatus: "donation.approved",
			},
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = paymentevent.NewWebhookHandler(transport.NewBaseHandler(logger), service, logger)
		recorder = httptest.NewRecorder()
	})

	ginkgo.Context("HandlePaymentCallback", func() {
		ginkgo.It("should answer 200 and force the webhook source", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", bytes.NewBuffer(callbackBody()))
			req.Header.Set("Content-Type", "application/json")

			handler.HandlePaymentCallback(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(service.lastDTO.Source).To(gomega.Equal(paymentevent.SourceWebhook))

			var resp map[string]interface{}
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp["status"]).To(gomega.Equal("success"))
			gomega.Expect(resp["message"]).To(gomega.Equal("notification recorded"))
		})

		ginkgo.It("should answer 200 with already processed on a replay", func() {
			service.result = &paymentevent.IngestResult{
				EventID:          "evt-100",
				AlreadyProcessed: true,
				DonationStatus:   "donation.approved",
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", bytes.NewBuffer(callbackBody()))
			handler.HandlePaymentCallback(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))

			var resp map[string]interface{}
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp["message"]).To(gomega.Equal("already processed"))
			gomega.Expect(resp["already_processed"]).To(gomega.Equal(true))
		})

		ginkgo.It("should answer 400 on an unreadable body", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", bytes.NewBufferString("{not json"))
			handler.HandlePaymentCallback(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should map unknown donation references to 404", func() {
			service.ingestError = internal.ErrDonationNotFound

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", bytes.NewBuffer(callbackBody()))
			handler.HandlePaymentCallback(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})

	ginkgo.Context("HandleReconEvent", func() {
		ginkgo.It("should force the recon source", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/recon", bytes.NewBuffer(callbackBody()))
			handler.HandleReconEvent(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(service.lastDTO.Source).To(gomega.Equal(paymentevent.SourceRecon))
		})
	})

	ginkgo.Context("GetEvent", func() {
		withParam := func(req *http.Request, key, value string) *http.Request {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add(key, value)
			return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		}

		ginkgo.It("should return a stored event by its id", func() {
			donationID := uuid.New()
			service.events = map[string]*paymenteventDatamodel.PaymentEvent{
				"evt-100": {ID: uuid.New(), DonationID: donationID, EventID: "evt-100", Source: paymentevent.SourceWebhook},
			}

			req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/payments/events/evt-100", nil), "event_id", "evt-100")
			handler.GetEvent(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))

			var ev paymenteventDatamodel.PaymentEvent
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &ev)).To(gomega.Succeed())
			gomega.Expect(ev.EventID).To(gomega.Equal("evt-100"))
			gomega.Expect(ev.DonationID).To(gomega.Equal(donationID))
		})

		ginkgo.It("should answer 404 for an unknown event id", func() {
			req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/payments/events/evt-missing", nil), "event_id", "evt-missing")
			handler.GetEvent(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})

	ginkgo.Context("ListDonationEvents", func() {
		withParam := func(req *http.Request, key, value string) *http.Request {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add(key, value)
			return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		}

		ginkgo.It("should list only the donation's events", func() {
			donationID := uuid.New()
			service.events = map[string]*paymenteventDatamodel.PaymentEvent{
				"evt-1": {ID: uuid.New(), DonationID: donationID, EventID: "evt-1", Source: paymentevent.SourceWebhook},
				"evt-2": {ID: uuid.New(), DonationID: uuid.New(), EventID: "evt-2", Source: paymentevent.SourceRecon},
			}

			req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/donations/"+donationID.String()+"/events", nil), "id", donationID.String())
			handler.ListDonationEvents(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))

			var resp struct {
				Events []paymenteventDatamodel.PaymentEvent `json:"events"`
			}
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Events).To(gomega.HaveLen(1))
			gomega.Expect(resp.Events[0].EventID).To(gomega.Equal("evt-1"))
		})

		ginkgo.It("should answer 400 for a malformed donation id", func() {
			req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/donations/nope/events", nil), "id", "nope")
			handler.ListDonationEvents(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})
})
