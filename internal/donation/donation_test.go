package donation

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/status"
)

func TestDonation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Donation Module Suite")
}

func pendingDonation() *Donation {
	return NewDonation(CreateDonationDTO{
		AmountGTQ:     decimal.NewFromInt(150),
		DonorEmail:    "donor@example.com",
		ReferenceCode: "DON-2026-0001",
	}, nil, nil)
}

var _ = Describe("Donation lifecycle", func() {
	Describe("NewDonation", func() {
		It("starts pending with no paid_at", func() {
			d := pendingDonation()

			Expect(d.Status).To(Equal(status.DonationPending))
			Expect(d.StatusCode).To(Equal("donation.pending"))
			Expect(d.PaidAt).To(BeNil())
		})

		It("generates a correlation_id when the client omits one", func() {
			d := pendingDonation()
			Expect(d.CorrelationID).NotTo(BeEmpty())
		})

		It("keeps the client correlation_id when provided", func() {
			d := NewDonation(CreateDonationDTO{
				AmountGTQ:     decimal.NewFromInt(50),
				DonorEmail:    "donor@example.com",
				ReferenceCode: "DON-2026-0002",
				CorrelationID: "client-key-42",
			}, nil, nil)

			Expect(d.CorrelationID).To(Equal("client-key-42"))
		})
	})

	Describe("Approve", func() {
		It("moves pending to approved and stamps paid_at", func() {
			d := pendingDonation()
			at := time.Now()

			Expect(d.Approve(at)).To(Succeed())
			Expect(d.Status).To(Equal(status.DonationApproved))
			Expect(d.PaidAt).NotTo(BeNil())
			Expect(*d.PaidAt).To(Equal(at))
		})

		It("does not overwrite an existing paid_at", func() {
			d := pendingDonation()
			first := time.Now().Add(-time.Hour)
			d.PaidAt = &first

			Expect(d.Approve(time.Now())).To(Succeed())
			Expect(*d.PaidAt).To(Equal(first))
		})

		It("rejects approval of an already approved donation", func() {
			d := pendingDonation()
			Expect(d.Approve(time.Now())).To(Succeed())

			err := d.Approve(time.Now())
			Expect(err).To(MatchError(internal.ErrInvalidTransition))
		})

		It("rejects approval of a declined donation", func() {
			d := pendingDonation()
			Expect(d.Decline(time.Now())).To(Succeed())

			err := d.Approve(time.Now())
			Expect(err).To(MatchError(internal.ErrInvalidTransition))
			Expect(d.Status).To(Equal(status.DonationDeclined))
		})
	})

	Describe("Decline", func() {
		It("moves pending to declined without paid_at", func() {
			d := pendingDonation()

			Expect(d.Decline(time.Now())).To(Succeed())
			Expect(d.Status).To(Equal(status.DonationDeclined))
			Expect(d.PaidAt).To(BeNil())
		})

		It("rejects declining an expired donation", func() {
			d := pendingDonation()
			Expect(d.Expire(time.Now())).To(Succeed())

			Expect(d.Decline(time.Now())).To(MatchError(internal.ErrInvalidTransition))
		})
	})

	Describe("Expire", func() {
		It("moves pending to expired", func() {
			d := pendingDonation()

			Expect(d.Expire(time.Now())).To(Succeed())
			Expect(d.Status).To(Equal(status.DonationExpired))
			Expect(d.IsResolved()).To(BeTrue())
		})
	})
})

var _ = Describe("CreateDonationDTO validation", func() {
	valid := func() CreateDonationDTO {
		return CreateDonationDTO{
			AmountGTQ:     decimal.NewFromInt(100),
			DonorEmail:    "donor@example.com",
			ReferenceCode: "DON-2026-0100",
		}
	}

	It("accepts a well-formed submission", func() {
		Expect(valid().Validate()).To(BeNil())
	})

	It("rejects a zero amount", func() {
		dto := valid()
		dto.AmountGTQ = decimal.Zero

		err := dto.Validate()
		Expect(err).NotTo(BeNil())
		Expect(err.Type).To(Equal(internal.ErrorTypeValidation))
	})

	It("rejects a negative amount", func() {
		dto := valid()
		dto.AmountGTQ = decimal.NewFromInt(-5)

		Expect(dto.Validate()).NotTo(BeNil())
	})

	It("rejects an amount above the maximum", func() {
		dto := valid()
		dto.AmountGTQ = decimal.NewFromInt(10001)

		Expect(dto.Validate()).NotTo(BeNil())
	})

	It("rejects a malformed email", func() {
		for _, email := range []string{"not-an-email", "user@", "@host.com", "user@host"} {
			dto := valid()
			dto.DonorEmail = email
			Expect(dto.Validate()).NotTo(BeNil(), "expected %q to be rejected", email)
		}
	})

	It("rejects reference codes shorter than three characters", func() {
		dto := valid()
		dto.ReferenceCode = "ab"

		Expect(dto.Validate()).NotTo(BeNil())
	})

	It("rejects reference codes with forbidden characters", func() {
		dto := valid()
		dto.ReferenceCode = "DON 2026!"

		Expect(dto.Validate()).NotTo(BeNil())
	})

	It("accepts dashes and underscores in reference codes", func() {
		dto := valid()
		dto.ReferenceCode = "DON_2026-0100"

		Expect(dto.Validate()).To(BeNil())
	})
})
