package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type NotificationType string

const (
	NotifyBookingRequested      NotificationType = "booking_requested"
	NotifyBookingConfirmed      NotificationType = "booking_confirmed"
	NotifyBookingCancelled      NotificationType = "booking_cancelled"
	NotifyJobStarted            NotificationType = "job_started"
	NotifyRateService           NotificationType = "rate_service"
	NotifyPayoutPending         NotificationType = "payout_pending"
	NotifyBookingDisputed       NotificationType = "booking_disputed"
	NotifyDisputeResolved       NotificationType = "dispute_resolved"
	NotifyPaymentReceived       NotificationType = "payment_received"
	NotifyPayoutSettled         NotificationType = "payout_settled"
	NotifyRefundIssued          NotificationType = "refund_issued"
	NotifyPayoutVoided          NotificationType = "payout_voided"
	NotifyReviewReceived        NotificationType = "review_received"
	NotifyProviderStatusChanged NotificationType = "provider_status_changed"
)

// Payload is the closed set of notification bodies. Each variant carries only
// the fields of its own event.
type Payload interface {
	Type() NotificationType
	payload()
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Payload   Payload   `json:"payload"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func (n Notification) Type() NotificationType {
	return n.Payload.Type()
}

type BookingRequested struct {
	BookingID   int64     `json:"booking_id"`
	Reference   string    `json:"reference"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Address     string    `json:"address"`
}

type Confirmation struct {
	BookingID   int64     `json:"booking_id"`
	Reference   string    `json:"reference"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

type Cancellation struct {
	BookingID   int64  `json:"booking_id"`
	Reference   string `json:"reference"`
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason,omitempty"`
}

type JobStarted struct {
	BookingID int64  `json:"booking_id"`
	Reference string `json:"reference"`
}

type RateService struct {
	BookingID   int64   `json:"booking_id"`
	Reference   string  `json:"reference"`
	ActualPrice float64 `json:"actual_price"`
}

type PayoutPending struct {
	BookingID int64   `json:"booking_id"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Paid      bool    `json:"paid"`
}

type DisputeRaised struct {
	BookingID int64  `json:"booking_id"`
	Reference string `json:"reference"`
	RaisedBy  string `json:"raised_by"`
	Reason    string `json:"reason,omitempty"`
}

type DisputeResolved struct {
	BookingID int64         `json:"booking_id"`
	Reference string        `json:"reference"`
	Outcome   BookingStatus `json:"outcome"`
	Note      string        `json:"note,omitempty"`
}

type PaymentReceived struct {
	BookingID int64   `json:"booking_id"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
}

type PayoutSettled struct {
	BookingID int64   `json:"booking_id"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
}

type RefundIssued struct {
	BookingID int64   `json:"booking_id"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
}

type PayoutVoided struct {
	BookingID int64   `json:"booking_id"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
}

type ReviewReceived struct {
	BookingID int64  `json:"booking_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

type ProviderStatusChanged struct {
	ProviderID int64          `json:"provider_id"`
	From       ProviderStatus `json:"from"`
	To         ProviderStatus `json:"to"`
}

func (BookingRequested) Type() NotificationType      { return NotifyBookingRequested }
func (Confirmation) Type() NotificationType          { return NotifyBookingConfirmed }
func (Cancellation) Type() NotificationType          { return NotifyBookingCancelled }
func (JobStarted) Type() NotificationType            { return NotifyJobStarted }
func (RateService) Type() NotificationType           { return NotifyRateService }
func (PayoutPending) Type() NotificationType         { return NotifyPayoutPending }
func (DisputeRaised) Type() NotificationType         { return NotifyBookingDisputed }
func (DisputeResolved) Type() NotificationType       { return NotifyDisputeResolved }
func (PaymentReceived) Type() NotificationType       { return NotifyPaymentReceived }
func (PayoutSettled) Type() NotificationType         { return NotifyPayoutSettled }
func (RefundIssued) Type() NotificationType          { return NotifyRefundIssued }
func (PayoutVoided) Type() NotificationType          { return NotifyPayoutVoided }
func (ReviewReceived) Type() NotificationType        { return NotifyReviewReceived }
func (ProviderStatusChanged) Type() NotificationType { return NotifyProviderStatusChanged }

func (BookingRequested) payload()      {}
func (Confirmation) payload()          {}
func (Cancellation) payload()          {}
func (JobStarted) payload()            {}
func (RateService) payload()           {}
func (PayoutPending) payload()         {}
func (DisputeRaised) payload()         {}
func (DisputeResolved) payload()       {}
func (PaymentReceived) payload()       {}
func (PayoutSettled) payload()         {}
func (RefundIssued) payload()          {}
func (PayoutVoided) payload()          {}
func (ReviewReceived) payload()        {}
func (ProviderStatusChanged) payload() {}

// DecodePayload restores the concrete variant stored under type t.
func DecodePayload(t NotificationType, data []byte) (Payload, error) {
	var p Payload
	switch t {
	case NotifyBookingRequested:
		p = &BookingRequested{}
	case NotifyBookingConfirmed:
		p = &Confirmation{}
	case NotifyBookingCancelled:
		p = &Cancellation{}
	case NotifyJobStarted:
		p = &JobStarted{}
	case NotifyRateService:
		p = &RateService{}
	case NotifyPayoutPending:
		p = &PayoutPending{}
	case NotifyBookingDisputed:
		p = &DisputeRaised{}
	case NotifyDisputeResolved:
		p = &DisputeResolved{}
	case NotifyPaymentReceived:
		p = &PaymentReceived{}
	case NotifyPayoutSettled:
		p = &PayoutSettled{}
	case NotifyRefundIssued:
		p = &RefundIssued{}
	case NotifyPayoutVoided:
		p = &PayoutVoided{}
	case NotifyReviewReceived:
		p = &ReviewReceived{}
	case NotifyProviderStatusChanged:
		p = &ProviderStatusChanged{}
	default:
		return nil, fmt.Errorf("unknown notification type %q", t)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return deref(p), nil
}

func deref(p Payload) Payload {
	switch v := p.(type) {
	case *BookingRequested:
		return *v
	case *Confirmation:
		return *v
	case *Cancellation:
		return *v
	case *JobStarted:
		return *v
	case *RateService:
		return *v
	case *PayoutPending:
		return *v
	case *DisputeRaised:
		return *v
	case *DisputeResolved:
		return *v
	case *PaymentReceived:
		return *v
	case *PayoutSettled:
		return *v
	case *RefundIssued:
		return *v
	case *PayoutVoided:
		return *v
	case *ReviewReceived:
		return *v
	case *ProviderStatusChanged:
		return *v
	}
	return p
}
