// Package lifecycle holds the booking state machine. Apply is the single
// entry point for every status change; it is pure and leaves persistence,
// locking and the ledger to the caller.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/mh26/services/internal/domain"
)

type Action string

const (
	Accept          Action = "accept"
	Cancel          Action = "cancel"
	Start           Action = "start"
	Complete        Action = "complete"
	Dispute         Action = "dispute"
	ResolveComplete Action = "resolve_complete"
	ResolveCancel   Action = "resolve_cancel"
)

func (a Action) resolves() bool {
	return a == ResolveComplete || a == ResolveCancel
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

type Actor struct {
	UserID int64
	Role   Role
	// ProviderID is the provider profile owned by the actor, set for providers only.
	ProviderID int64
}

type Policy struct {
	FeeRate            float64
	CancellationWindow time.Duration
	StartGrace         time.Duration
}

type Request struct {
	Action Action
	Actor  Actor
	Now    time.Time
	// ActualPrice is used by completions; zero means the estimate.
	ActualPrice float64
	Reason      string
}

type Outcome struct {
	Action Action
	From   domain.BookingStatus
	To     domain.BookingStatus
	// Payout is the provider share accrued by a completion.
	Payout float64
	// Flagged marks a provider cancellation inside the window.
	Flagged bool
}

// Apply validates req against the booking and, on success, moves b to the
// next status and fills the derived fields. b is untouched on error.
func Apply(b *domain.Booking, req Request, p Policy) (Outcome, error) {
	out := Outcome{Action: req.Action, From: b.Status}

	if b.Status.Terminal() {
		return out, fmt.Errorf("%w: booking %d is %s", domain.ErrTerminalState, b.ID, b.Status)
	}
	if err := authorize(b, req.Actor, req.Action); err != nil {
		return out, err
	}
	if b.Status == domain.BookingDisputed && !req.Action.resolves() {
		return out, fmt.Errorf("%w: booking %d is disputed and awaits admin resolution", domain.ErrInvalidTransition, b.ID)
	}

	switch req.Action {
	case Accept:
		if err := expect(b, req.Action, domain.BookingPending); err != nil {
			return out, err
		}
		b.Status = domain.BookingConfirmed
		b.ConfirmedAt = at(req.Now)

	case Cancel:
		if err := expect(b, req.Action, domain.BookingPending, domain.BookingConfirmed); err != nil {
			return out, err
		}
		inWindow := req.Now.After(b.ScheduledAt.Add(-p.CancellationWindow))
		if inWindow && req.Actor.Role == RoleCustomer {
			return out, fmt.Errorf("%w: booking %d can be cancelled until %s", domain.ErrCancellationWindowExpired,
				b.ID, b.ScheduledAt.Add(-p.CancellationWindow).Format(time.RFC3339))
		}
		if inWindow {
			b.NeedsReview = true
			out.Flagged = true
		}
		b.Status = domain.BookingCancelled
		b.CancelledAt = at(req.Now)
		b.CancellationReason = req.Reason

	case Start:
		if err := expect(b, req.Action, domain.BookingConfirmed); err != nil {
			return out, err
		}
		if earliest := b.ScheduledAt.Add(-p.StartGrace); req.Now.Before(earliest) {
			return out, fmt.Errorf("%w: booking %d cannot start before %s", domain.ErrInvalidTransition,
				b.ID, earliest.Format(time.RFC3339))
		}
		b.Status = domain.BookingInProgress
		b.StartedAt = at(req.Now)

	case Complete:
		if err := expect(b, req.Action, domain.BookingInProgress); err != nil {
			return out, err
		}
		payout, err := complete(b, req, p)
		if err != nil {
			return out, err
		}
		out.Payout = payout

	case Dispute:
		b.DisputedFrom = b.Status
		b.Status = domain.BookingDisputed
		b.DisputedAt = at(req.Now)

	case ResolveComplete:
		if err := expect(b, req.Action, domain.BookingDisputed); err != nil {
			return out, err
		}
		payout, err := complete(b, req, p)
		if err != nil {
			return out, err
		}
		out.Payout = payout

	case ResolveCancel:
		if err := expect(b, req.Action, domain.BookingDisputed); err != nil {
			return out, err
		}
		b.Status = domain.BookingCancelled
		b.CancelledAt = at(req.Now)
		b.CancellationReason = req.Reason
	}

	out.To = b.Status
	return out, nil
}

func complete(b *domain.Booking, req Request, p Policy) (float64, error) {
	price := req.ActualPrice
	if price == 0 {
		price = b.EstimatedPrice
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: actual price %.2f", domain.ErrInvalidAmount, price)
	}
	// The payout of a refunded booking could never be settled.
	if b.PaymentStatus == domain.PaymentRefunded {
		return 0, fmt.Errorf("%w: booking %d was refunded", domain.ErrInvalidTransition, b.ID)
	}
	price = domain.RoundMoney(price)
	// A prepaid booking was charged the estimate.
	if b.PaymentStatus == domain.PaymentPaid && !domain.SameAmount(price, b.EstimatedPrice) {
		return 0, fmt.Errorf("%w: booking %d was paid %.2f, actual price %.2f", domain.ErrAmountMismatch,
			b.ID, b.EstimatedPrice, price)
	}

	fee, earnings := domain.SplitFee(price, p.FeeRate)
	b.Status = domain.BookingCompleted
	b.ActualPrice = price
	b.PlatformFee = fee
	b.ProviderEarnings = earnings
	b.CompletedAt = at(req.Now)
	return earnings, nil
}

func authorize(b *domain.Booking, actor Actor, action Action) error {
	isCustomer := actor.Role == RoleCustomer && actor.UserID == b.CustomerID
	isProvider := actor.Role == RoleProvider && actor.ProviderID == b.ProviderID

	var allowed bool
	switch action {
	case Accept, Start, Complete:
		allowed = isProvider
	case Cancel, Dispute:
		allowed = isCustomer || isProvider
	case ResolveComplete, ResolveCancel:
		allowed = actor.Role == RoleAdmin
	default:
		return fmt.Errorf("%w: unknown action %q", domain.ErrInvalidTransition, action)
	}
	if !allowed {
		return fmt.Errorf("%w: %s %d may not %s booking %d", domain.ErrForbidden, actor.Role, actor.UserID, action, b.ID)
	}
	return nil
}

func expect(b *domain.Booking, action Action, from ...domain.BookingStatus) error {
	for _, s := range from {
		if b.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s booking %d in status %s", domain.ErrInvalidTransition, action, b.ID, b.Status)
}

func at(t time.Time) *time.Time {
	return &t
}
