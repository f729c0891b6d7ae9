package paymentevent_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/donation-management/internal"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	paymenteventDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/paymentevent"
	"github.com/frahmantamala/donation-management/internal/core/events"
	"github.com/frahmantamala/donation-management/internal/core/status"
	"github.com/frahmantamala/donation-management/internal/donation"
	donationPostgres "github.com/frahmantamala/donation-management/internal/donation/postgres"
	"github.com/frahmantamala/donation-management/internal/paymentevent"
	paymenteventPostgres "github.com/frahmantamala/donation-management/internal/paymentevent/postgres"
)

func TestPaymentEventService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PaymentEventService Suite")
}

var _ = Describe("PaymentEventService", func() {
	var (
		db            *gorm.DB
		donationRepo  donation.Repository
		service       *paymentevent.Service
		eventRepo     paymentevent.Repository
		pendingTarget *donation.Donation
	)

	ingestDTO := func(eventID, outcome string) paymentevent.IngestEventDTO {
		return paymentevent.IngestEventDTO{
			EventID:           eventID,
			DonationReference: pendingTarget.ReferenceCode,
			Source:            paymentevent.SourceWebhook,
			Status:            outcome,
			Payload:           json.RawMessage(`{"provider":"payu"}`),
			SignatureOK:       true,
		}
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&donationDatamodel.Donation{}, &paymenteventDatamodel.PaymentEvent{})
		Expect(err).NotTo(HaveOccurred())

		donationRepo = donationPostgres.NewDonationRepository(db)
		eventRepo = paymenteventPostgres.NewPaymentEventRepository(db)

		bus := events.NewEventBus(slog.Default())
		service = paymentevent.NewService(eventRepo, donationRepo, bus, slog.Default())

		pendingTarget = donation.NewDonation(donation.CreateDonationDTO{
			AmountGTQ:     decimal.NewFromInt(500),
			DonorEmail:    "donor@example.com",
			ReferenceCode: "DON-9001",
		}, nil, nil)
		Expect(donationRepo.Create(pendingTarget)).To(Succeed())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Ingest", func() {
		It("records an approved event and resolves the donation", func() {
			result, err := service.Ingest(context.Background(), ingestDTO("evt-001", "approved"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AlreadyProcessed).To(BeFalse())
			Expect(result.Transitioned).To(BeTrue())
			Expect(result.DonationStatus).To(Equal("donation.approved"))

			d, err := donationRepo.GetByID(pendingTarget.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status).To(Equal(status.DonationApproved))
			Expect(d.PaidAt).NotTo(BeNil())

			ev, err := eventRepo.GetByEventID("evt-001")
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.DonationID).To(Equal(pendingTarget.ID))
			Expect(status.EventStatus(ev.StatusID)).To(Equal(status.EventApproved))
		})

		It("records a declined event without stamping paid_at", func() {
			result, err := service.Ingest(context.Background(), ingestDTO("evt-002", "declined"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Transitioned).To(BeTrue())

			d, err := donationRepo.GetByID(pendingTarget.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status).To(Equal(status.DonationDeclined))
			Expect(d.PaidAt).To(BeNil())
		})

		It("records a pending notification without transitioning", func() {
			result, err := service.Ingest(context.Background(), ingestDTO("evt-003", "pending"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Transitioned).To(BeFalse())

			d, err := donationRepo.GetByID(pendingTarget.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status).To(Equal(status.DonationPending))
		})

		It("answers a replayed event_id as already processed without a second transition", func() {
			_, err := service.Ingest(context.Background(), ingestDTO("evt-004", "approved"))
			Expect(err).NotTo(HaveOccurred())

			// same delivery replayed with a contradictory outcome
			replay := ingestDTO("evt-004", "declined")
			result, err := service.Ingest(context.Background(), replay)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AlreadyProcessed).To(BeTrue())
			Expect(result.Transitioned).To(BeFalse())

			d, err := donationRepo.GetByID(pendingTarget.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status).To(Equal(status.DonationApproved))

			evs, err := eventRepo.ListByDonation(pendingTarget.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(evs).To(HaveLen(1))
		})

		It("appends a late event for a resolved donation without transitioning", func() {
			_, err := service.Ingest(context.Background(), ingestDTO("evt-005", "declined"))
			Expect(err).NotTo(HaveOccurred())

			result, err := service.Ingest(context.Background(), ingestDTO("evt-006", "approved"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AlreadyProcessed).To(BeFalse())
			Expect(result.Transitioned).To(BeFalse())

			d, err := donationRepo.GetByID(pendingTarget.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status).To(Equal(status.DonationDeclined))
			Expect(d.PaidAt).To(BeNil())

			evs, err := eventRepo.ListByDonation(pendingTarget.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(evs).To(HaveLen(2))
		})

		It("records an unverifiable signature as event.error and leaves the donation pending", func() {
			dto := ingestDTO("evt-007", "approved")
			dto.SignatureOK = false

			result, err := service.Ingest(context.Background(), dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Transitioned).To(BeFalse())

			ev, err := eventRepo.GetByEventID("evt-007")
			Expect(err).NotTo(HaveOccurred())
			Expect(status.EventStatus(ev.StatusID)).To(Equal(status.EventError))

			d, err := donationRepo.GetByID(pendingTarget.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status).To(Equal(status.DonationPending))
		})

		It("accepts reconciliation events", func() {
			dto := ingestDTO("evt-008", "approved")
			dto.Source = paymentevent.SourceRecon

			result, err := service.Ingest(context.Background(), dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Transitioned).To(BeTrue())

			ev, err := eventRepo.GetByEventID("evt-008")
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Source).To(Equal(paymentevent.SourceRecon))
		})

		It("fails for an unknown donation reference", func() {
			dto := ingestDTO("evt-009", "approved")
			dto.DonationReference = "DON-MISSING"

			_, err := service.Ingest(context.Background(), dto)
			Expect(err).To(MatchError(internal.ErrDonationNotFound))
		})

		It("rejects an unknown source before touching storage", func() {
			dto := ingestDTO("evt-010", "approved")
			dto.Source = "sms"

			_, err := service.Ingest(context.Background(), dto)
			Expect(err).To(HaveOccurred())

			_, err = eventRepo.GetByEventID("evt-010")
			Expect(err).To(HaveOccurred())
		})
	})
})
