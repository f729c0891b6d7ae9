package donation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/events"
	"github.com/frahmantamala/donation-management/internal/core/scope"
	"github.com/frahmantamala/donation-management/internal/core/status"
)

type mockDonationRepo struct {
	donations    map[uuid.UUID]*Donation
	byReference  map[string]*Donation
	createErr    error
	transitioned []uuid.UUID
}

func newMockDonationRepo() *mockDonationRepo {
	return &mockDonationRepo{
		donations:   make(map[uuid.UUID]*Donation),
		byReference: make(map[string]*Donation),
	}
}

func (m *mockDonationRepo) Create(d *Donation) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.byReference[d.ReferenceCode]; exists {
		return internal.NewConflictError("reference_code already exists", internal.ErrCodeDuplicateReferenceCode)
	}
	m.donations[d.ID] = d
	m.byReference[d.ReferenceCode] = d
	return nil
}

func (m *mockDonationRepo) GetByID(id uuid.UUID) (*Donation, error) {
	d, ok := m.donations[id]
	if !ok {
		return nil, internal.ErrDonationNotFound
	}
	return d, nil
}

func (m *mockDonationRepo) GetByReferenceCode(code string) (*Donation, error) {
	d, ok := m.byReference[code]
	if !ok {
		return nil, internal.ErrDonationNotFound
	}
	return d, nil
}

func (m *mockDonationRepo) List(sc scope.Scope, limit, offset int) ([]*Donation, error) {
	var out []*Donation
	for _, d := range m.donations {
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDonationRepo) UpdateStatusIfPending(id uuid.UUID, st status.DonationStatus, paidAt *time.Time) (bool, error) {
	d, ok := m.donations[id]
	if !ok {
		return false, internal.ErrDonationNotFound
	}
	if d.Status != status.DonationPending {
		return false, nil
	}
	d.Status = st
	d.StatusCode = st.String()
	if paidAt != nil && d.PaidAt == nil {
		d.PaidAt = paidAt
	}
	m.transitioned = append(m.transitioned, id)
	return true, nil
}

func (m *mockDonationRepo) ListStalePending(before time.Time, limit int) ([]*Donation, error) {
	var out []*Donation
	for _, d := range m.donations {
		if d.Status == status.DonationPending && d.CreatedAt.Before(before) {
			out = append(out, d)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockDonationRepo) Stats(sc scope.Scope) (*StatsDTO, error) {
	return &StatsDTO{}, nil
}

var _ = Describe("DonationService", func() {
	var (
		repo    *mockDonationRepo
		service *Service
	)

	BeforeEach(func() {
		repo = newMockDonationRepo()
		bus := events.NewEventBus(slog.Default())
		service = NewService(repo, bus, slog.Default())
	})

	Describe("CreateDonation", func() {
		It("persists a valid donation as pending", func() {
			d, err := service.CreateDonation(CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(250),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-1001",
			}, nil, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status).To(Equal(status.DonationPending))
			Expect(repo.donations).To(HaveKey(d.ID))
		})

		It("attaches the caller when authenticated", func() {
			userID := uuid.New()
			orgID := uuid.New()

			d, err := service.CreateDonation(CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(250),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-1002",
			}, &userID, &orgID)

			Expect(err).NotTo(HaveOccurred())
			Expect(*d.UserID).To(Equal(userID))
			Expect(*d.OrganizationID).To(Equal(orgID))
		})

		It("rejects invalid submissions without touching the repository", func() {
			_, err := service.CreateDonation(CreateDonationDTO{
				AmountGTQ:     decimal.Zero,
				DonorEmail:    "bad",
				ReferenceCode: "x",
			}, nil, nil)

			Expect(err).To(HaveOccurred())
			Expect(repo.donations).To(BeEmpty())
		})

		It("surfaces duplicate reference codes as conflicts", func() {
			dto := CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(100),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-1003",
			}

			_, err := service.CreateDonation(dto, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateDonation(dto, nil, nil)
			Expect(err).To(HaveOccurred())
			Expect(internal.IsUniquenessViolation(err)).To(BeTrue())
		})
	})

	Describe("GetDonation", func() {
		var (
			ownerID uuid.UUID
			orgID   uuid.UUID
			d       *Donation
		)

		BeforeEach(func() {
			ownerID = uuid.New()
			orgID = uuid.New()

			var err error
			d, err = service.CreateDonation(CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(300),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-2001",
			}, &ownerID, &orgID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the donation for an all-seeing scope", func() {
			got, err := service.GetDonation(d.ID, scope.All())
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(d.ID))
		})

		It("returns the donation to its owner", func() {
			got, err := service.GetDonation(d.ID, scope.Own(ownerID))
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(d.ID))
		})

		It("returns the donation within its organization", func() {
			_, err := service.GetDonation(d.ID, scope.Organization(orgID))
			Expect(err).NotTo(HaveOccurred())
		})

		It("hides the donation from other users as not found", func() {
			_, err := service.GetDonation(d.ID, scope.Own(uuid.New()))
			Expect(err).To(MatchError(internal.ErrDonationNotFound))
		})

		It("hides the donation from other organizations as not found", func() {
			_, err := service.GetDonation(d.ID, scope.Organization(uuid.New()))
			Expect(err).To(MatchError(internal.ErrDonationNotFound))
		})
	})

	Describe("ExpireStale", func() {
		It("expires pending donations older than the window", func() {
			d, err := service.CreateDonation(CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(75),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-3001",
			}, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			d.CreatedAt = time.Now().Add(-96 * time.Hour)

			expired, err := service.ExpireStale(context.Background(), 72*time.Hour, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(Equal(1))
			Expect(d.Status).To(Equal(status.DonationExpired))
		})

		It("leaves recent pending donations alone", func() {
			d, err := service.CreateDonation(CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(75),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-3002",
			}, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			expired, err := service.ExpireStale(context.Background(), 72*time.Hour, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(BeZero())
			Expect(d.Status).To(Equal(status.DonationPending))
		})

		It("skips donations resolved between the list and the update", func() {
			d, err := service.CreateDonation(CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(75),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-3003",
			}, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			d.CreatedAt = time.Now().Add(-96 * time.Hour)
			Expect(d.Approve(time.Now())).To(Succeed())

			expired, err := service.ExpireStale(context.Background(), 72*time.Hour, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(BeZero())
			Expect(d.Status).To(Equal(status.DonationApproved))
		})
	})

	Describe("ExpireDonation", func() {
		It("expires a pending donation on request", func() {
			d, err := service.CreateDonation(CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(80),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-4001",
			}, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			expired, err := service.ExpireDonation(context.Background(), d.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired.Status).To(Equal(status.DonationExpired))
		})

		It("refuses to expire a resolved donation", func() {
			d, err := service.CreateDonation(CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(80),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-4002",
			}, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Approve(time.Now())).To(Succeed())

			_, err = service.ExpireDonation(context.Background(), d.ID)
			Expect(err).To(MatchError(internal.ErrInvalidTransition))
			Expect(d.Status).To(Equal(status.DonationApproved))
		})

		It("fails for an unknown donation", func() {
			_, err := service.ExpireDonation(context.Background(), uuid.New())
			Expect(err).To(MatchError(internal.ErrDonationNotFound))
		})
	})

	Describe("ListDonations", func() {
		It("clamps out-of-range limits to the default", func() {
			_, err := service.ListDonations(scope.All(), 500, -2)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
