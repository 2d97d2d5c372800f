// Package notify maps booking and ledger events to the notifications owed to
// each party. It performs no delivery.
package notify

import (
	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/lifecycle"
)

type Kind string

const (
	BookingCreated      Kind = "booking_created"
	BookingTransitioned Kind = "booking_transitioned"
	PaymentRecorded     Kind = "payment_recorded"
	PayoutSettled       Kind = "payout_settled"
	RefundIssued        Kind = "refund_issued"
	ReviewSubmitted     Kind = "review_submitted"
)

// Parties are the user ids of the two sides of a booking.
type Parties struct {
	CustomerID     int64
	ProviderUserID int64
}

type Event struct {
	Kind      Kind
	Booking   domain.Booking
	Outcome   lifecycle.Outcome
	ActorRole lifecycle.Role
	Note      string
	Amount    float64
	Method    string
	// Voided is the pending payout cancelled by a refund, zero if none.
	Voided  float64
	Rating  int
	Comment string
}

func For(ev Event, parties Parties) []domain.Notification {
	b := ev.Booking
	switch ev.Kind {
	case BookingCreated:
		return []domain.Notification{
			to(parties.ProviderUserID, domain.BookingRequested{
				BookingID: b.ID, Reference: b.Reference, ScheduledAt: b.ScheduledAt, Address: b.Address,
			}),
		}
	case BookingTransitioned:
		return forTransition(ev, parties)
	case PaymentRecorded:
		payment := domain.PaymentReceived{BookingID: b.ID, Reference: b.Reference, Amount: ev.Amount, Method: ev.Method}
		return []domain.Notification{to(parties.CustomerID, payment), to(parties.ProviderUserID, payment)}
	case PayoutSettled:
		return []domain.Notification{
			to(parties.ProviderUserID, domain.PayoutSettled{BookingID: b.ID, Reference: b.Reference, Amount: ev.Amount}),
		}
	case RefundIssued:
		ns := []domain.Notification{
			to(parties.CustomerID, domain.RefundIssued{BookingID: b.ID, Reference: b.Reference, Amount: ev.Amount}),
		}
		if ev.Voided > 0 {
			ns = append(ns, to(parties.ProviderUserID, domain.PayoutVoided{BookingID: b.ID, Reference: b.Reference, Amount: ev.Voided}))
		}
		return ns
	case ReviewSubmitted:
		return []domain.Notification{
			to(parties.ProviderUserID, domain.ReviewReceived{BookingID: b.ID, Rating: ev.Rating, Comment: ev.Comment}),
		}
	}
	return nil
}

func forTransition(ev Event, parties Parties) []domain.Notification {
	b := ev.Booking
	switch ev.Outcome.Action {
	case lifecycle.Accept:
		return []domain.Notification{
			to(parties.CustomerID, domain.Confirmation{BookingID: b.ID, Reference: b.Reference, ScheduledAt: b.ScheduledAt}),
		}
	case lifecycle.Cancel:
		p := domain.Cancellation{BookingID: b.ID, Reference: b.Reference, CancelledBy: string(ev.ActorRole), Reason: ev.Note}
		return []domain.Notification{to(otherParty(ev.ActorRole, parties), p)}
	case lifecycle.Start:
		return []domain.Notification{to(parties.CustomerID, domain.JobStarted{BookingID: b.ID, Reference: b.Reference})}
	case lifecycle.Complete:
		return completed(b, parties)
	case lifecycle.Dispute:
		p := domain.DisputeRaised{BookingID: b.ID, Reference: b.Reference, RaisedBy: string(ev.ActorRole), Reason: ev.Note}
		return []domain.Notification{to(otherParty(ev.ActorRole, parties), p)}
	case lifecycle.ResolveComplete, lifecycle.ResolveCancel:
		p := domain.DisputeResolved{BookingID: b.ID, Reference: b.Reference, Outcome: ev.Outcome.To, Note: ev.Note}
		ns := []domain.Notification{to(parties.CustomerID, p), to(parties.ProviderUserID, p)}
		if ev.Outcome.To == domain.BookingCompleted {
			ns = append(ns, completed(b, parties)...)
		}
		return ns
	}
	return nil
}

func completed(b domain.Booking, parties Parties) []domain.Notification {
	return []domain.Notification{
		to(parties.CustomerID, domain.RateService{BookingID: b.ID, Reference: b.Reference, ActualPrice: b.ActualPrice}),
		to(parties.ProviderUserID, domain.PayoutPending{
			BookingID: b.ID, Reference: b.Reference, Amount: b.ProviderEarnings, Paid: b.PaymentStatus == domain.PaymentPaid,
		}),
	}
}

func ForProviderStatus(p domain.Provider, from domain.ProviderStatus) []domain.Notification {
	return []domain.Notification{
		to(p.UserID, domain.ProviderStatusChanged{ProviderID: p.ID, From: from, To: p.Status}),
	}
}

func otherParty(role lifecycle.Role, parties Parties) int64 {
	if role == lifecycle.RoleCustomer {
		return parties.ProviderUserID
	}
	return parties.CustomerID
}

func to(userID int64, p domain.Payload) domain.Notification {
	return domain.Notification{UserID: userID, Payload: p}
}
