package donation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/auth"
	"github.com/frahmantamala/donation-management/internal/core/scope"
	donationpkg "github.com/frahmantamala/donation-management/internal/donation"
)

type mockDonationService struct {
	createError error
	getError    error
	listError   error
	statsError  error
	expireError error
	donation    *donationpkg.Donation
	donations   []*donationpkg.Donation
	stats       *donationpkg.StatsDTO
	lastUserID  *uuid.UUID
	lastScope   scope.Scope
}

func (m *mockDonationService) CreateDonation(dto donationpkg.CreateDonationDTO, userID, organizationID *uuid.UUID) (*donationpkg.Donation, error) {
	m.lastUserID = userID
	if m.createError != nil {
		return nil, m.createError
	}
	return m.donation, nil
}

func (m *mockDonationService) GetDonation(id uuid.UUID, sc scope.Scope) (*donationpkg.Donation, error) {
	m.lastScope = sc
	if m.getError != nil {
		return nil, m.getError
	}
	return m.donation, nil
}

func (m *mockDonationService) ListDonations(sc scope.Scope, limit, offset int) ([]*donationpkg.Donation, error) {
	m.lastScope = sc
	if m.listError != nil {
		return nil, m.listError
	}
	return m.donations, nil
}

func (m *mockDonationService) Stats(sc scope.Scope) (*donationpkg.StatsDTO, error) {
	m.lastScope = sc
	if m.statsError != nil {
		return nil, m.statsError
	}
	return m.stats, nil
}

func (m *mockDonationService) ExpireDonation(ctx context.Context, id uuid.UUID) (*donationpkg.Donation, error) {
	if m.expireError != nil {
		return nil, m.expireError
	}
	return m.donation, nil
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func requestWithUser(method, target string, body []byte, user *auth.User) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	}
	return req
}

var _ = ginkgo.Describe("DonationHandler", func() {
	var (
		handler  *donationpkg.Handler
		service  *mockDonationService
		recorder *httptest.ResponseRecorder
	)

	createBody := func() []byte {
		body, err := json.Marshal(map[string]interface{}{
			"amount_gtq":     "250.00",
			"donor_email":    "donor@example.com",
			"reference_code": "DON-8001",
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return body
	}

	ginkgo.BeforeEach(func() {
		service = &mockDonationService{
			donation: donationpkg.NewDonation(donationpkg.CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(250),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-8001",
			}, nil, nil),
			stats: &donationpkg.StatsDTO{},
		}
		handler = donationpkg.NewHandler(service)
		recorder = httptest.NewRecorder()
	})

	ginkgo.Context("CreateDonation", func() {
		ginkgo.It("should accept an anonymous donation", func() {
			req := requestWithUser(http.MethodPost, "/api/v1/donations", createBody(), nil)

			handler.CreateDonation(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusCreated))
			gomega.Expect(service.lastUserID).To(gomega.BeNil())
		})

		ginkgo.It("should attach the authenticated caller", func() {
			user := &auth.User{ID: uuid.New(), Email: "donor@example.com", Roles: []string{auth.RoleDonor}}
			req := requestWithUser(http.MethodPost, "/api/v1/donations", createBody(), user)

			handler.CreateDonation(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusCreated))
			gomega.Expect(service.lastUserID).ToNot(gomega.BeNil())
			gomega.Expect(*service.lastUserID).To(gomega.Equal(user.ID))
		})

		ginkgo.It("should answer 400 on an unreadable body", func() {
			req := requestWithUser(http.MethodPost, "/api/v1/donations", []byte("{not json"), nil)

			handler.CreateDonation(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should answer 409 on a duplicate submission", func() {
			service.createError = internal.ErrDuplicateSubmission

			req := requestWithUser(http.MethodPost, "/api/v1/donations", createBody(), nil)
			handler.CreateDonation(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusConflict))
		})
	})

	ginkgo.Context("GetDonation", func() {
		ginkgo.It("should require authentication", func() {
			req := requestWithUser(http.MethodGet, "/api/v1/donations/"+service.donation.ID.String(), nil, nil)

			handler.GetDonation(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should pass the caller's scope to the service", func() {
			user := &auth.User{ID: uuid.New(), Email: "donor@example.com", Roles: []string{auth.RoleDonor}}
			req := requestWithUser(http.MethodGet, "/api/v1/donations/"+service.donation.ID.String(), nil, user)
			req = withURLParam(req, "id", service.donation.ID.String())

			handler.GetDonation(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(service.lastScope.Kind).To(gomega.Equal(scope.KindOwn))
			gomega.Expect(service.lastScope.UserID).To(gomega.Equal(user.ID))
		})

		ginkgo.It("should answer 400 on a malformed id", func() {
			user := &auth.User{ID: uuid.New(), Email: "donor@example.com", Roles: []string{auth.RoleDonor}}
			req := requestWithUser(http.MethodGet, "/api/v1/donations/abc", nil, user)
			req = withURLParam(req, "id", "abc")

			handler.GetDonation(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should answer 404 when the scope hides the donation", func() {
			service.getError = internal.ErrDonationNotFound

			user := &auth.User{ID: uuid.New(), Email: "donor@example.com", Roles: []string{auth.RoleDonor}}
			req := requestWithUser(http.MethodGet, "/api/v1/donations/"+service.donation.ID.String(), nil, user)
			req = withURLParam(req, "id", service.donation.ID.String())

			handler.GetDonation(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})

	ginkgo.Context("ExpireDonation", func() {
		ginkgo.It("should expire a pending donation", func() {
			req := requestWithUser(http.MethodPost, "/api/v1/donations/"+service.donation.ID.String()+"/expire", nil, nil)
			req = withURLParam(req, "id", service.donation.ID.String())

			handler.ExpireDonation(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("should answer 409 when the donation is already resolved", func() {
			service.expireError = internal.ErrInvalidTransition

			req := requestWithUser(http.MethodPost, "/api/v1/donations/"+service.donation.ID.String()+"/expire", nil, nil)
			req = withURLParam(req, "id", service.donation.ID.String())

			handler.ExpireDonation(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusConflict))
		})
	})

	ginkgo.Context("ListDonations", func() {
		ginkgo.It("should widen the scope for admins", func() {
			user := &auth.User{ID: uuid.New(), Email: "admin@example.com", Roles: []string{auth.RoleAdmin}}
			req := requestWithUser(http.MethodGet, "/api/v1/donations", nil, user)

			handler.ListDonations(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(service.lastScope.Kind).To(gomega.Equal(scope.KindAll))
		})

		ginkgo.It("should require authentication", func() {
			req := requestWithUser(http.MethodGet, "/api/v1/donations", nil, nil)

			handler.ListDonations(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Context("GetStats", func() {
		ginkgo.It("should return aggregates for the caller's scope", func() {
			user := &auth.User{ID: uuid.New(), Email: "admin@example.com", Roles: []string{auth.RoleAuditor}}
			req := requestWithUser(http.MethodGet, "/api/v1/donations/stats", nil, user)

			handler.GetStats(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(service.lastScope.Kind).To(gomega.Equal(scope.KindAll))
		})
	})
})
