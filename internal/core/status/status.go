// Package status defines the lifecycle code catalog shared by donations,
// payment events and email notifications. The catalog is a closed set with
// stable numeric identifiers; the status_catalog table is seeded from
// Entries and referenced by foreign key, but application code never treats
// a status as an arbitrary row id.
package status

import "fmt"

// DonationStatus is the lifecycle state of a donation.
type DonationStatus int16

const (
	DonationPending  DonationStatus = 1
	DonationApproved DonationStatus = 2
	DonationDeclined DonationStatus = 3
	DonationExpired  DonationStatus = 4
)

// EmailStatus is the lifecycle state of an outbound notification.
type EmailStatus int16

const (
	EmailQueued    EmailStatus = 10
	EmailSent      EmailStatus = 11
	EmailFailed    EmailStatus = 12
	EmailDelivered EmailStatus = 13
	EmailBounced   EmailStatus = 14
)

// EventStatus is the provider-reported outcome carried by a payment event.
type EventStatus int16

const (
	EventPending  EventStatus = 20
	EventApproved EventStatus = 21
	EventDeclined EventStatus = 22
	EventError    EventStatus = 23
)

func (s DonationStatus) String() string {
	switch s {
	case DonationPending:
		return "donation.pending"
	case DonationApproved:
		return "donation.approved"
	case DonationDeclined:
		return "donation.declined"
	case DonationExpired:
		return "donation.expired"
	}
	return fmt.Sprintf("donation.unknown(%d)", int16(s))
}

// IsTerminal reports whether no further transition is permitted.
func (s DonationStatus) IsTerminal() bool {
	return s == DonationApproved || s == DonationDeclined || s == DonationExpired
}

func (s DonationStatus) Valid() bool {
	return s >= DonationPending && s <= DonationExpired
}

func (s EmailStatus) String() string {
	switch s {
	case EmailQueued:
		return "email.queued"
	case EmailSent:
		return "email.sent"
	case EmailFailed:
		return "email.failed"
	case EmailDelivered:
		return "email.delivered"
	case EmailBounced:
		return "email.bounced"
	}
	return fmt.Sprintf("email.unknown(%d)", int16(s))
}

func (s EmailStatus) Valid() bool {
	return s >= EmailQueued && s <= EmailBounced
}

func (s EventStatus) String() string {
	switch s {
	case EventPending:
		return "event.pending"
	case EventApproved:
		return "event.approved"
	case EventDeclined:
		return "event.declined"
	case EventError:
		return "event.error"
	}
	return fmt.Sprintf("event.unknown(%d)", int16(s))
}

func (s EventStatus) Valid() bool {
	return s >= EventPending && s <= EventError
}

// Entry is one seeded row of the status_catalog table.
type Entry struct {
	ID          int16
	Code        string
	Description string
}

// Entries is the full catalog seed. Reference data, never mutated at runtime.
var Entries = []Entry{
	{ID: int16(DonationPending), Code: "donation.pending", Description: "Donation created, awaiting payment resolution"},
	{ID: int16(DonationApproved), Code: "donation.approved", Description: "Payment confirmed by provider"},
	{ID: int16(DonationDeclined), Code: "donation.declined", Description: "Payment declined by provider"},
	{ID: int16(DonationExpired), Code: "donation.expired", Description: "No resolution arrived within the expiry window"},

	{ID: int16(EmailQueued), Code: "email.queued", Description: "Notification queued for delivery"},
	{ID: int16(EmailSent), Code: "email.sent", Description: "Provider accepted the message"},
	{ID: int16(EmailFailed), Code: "email.failed", Description: "Delivery attempt failed"},
	{ID: int16(EmailDelivered), Code: "email.delivered", Description: "Provider confirmed delivery"},
	{ID: int16(EmailBounced), Code: "email.bounced", Description: "Provider reported a bounce"},

	{ID: int16(EventPending), Code: "event.pending", Description: "Provider notification received, not yet resolving"},
	{ID: int16(EventApproved), Code: "event.approved", Description: "Provider-confirmed success signal"},
	{ID: int16(EventDeclined), Code: "event.declined", Description: "Provider-confirmed failure signal"},
	{ID: int16(EventError), Code: "event.error", Description: "Malformed or unverifiable notification"},
}

// DonationStatusFromEvent maps a resolving provider signal to the donation
// state it produces. Non-resolving signals map to pending with ok=false.
func DonationStatusFromEvent(s EventStatus) (DonationStatus, bool) {
	switch s {
	case EventApproved:
		return DonationApproved, true
	case EventDeclined:
		return DonationDeclined, true
	}
	return DonationPending, false
}
