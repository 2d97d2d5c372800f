package domain

import "time"

type ProviderStatus string

const (
	ProviderPending   ProviderStatus = "PENDING"
	ProviderApproved  ProviderStatus = "APPROVED"
	ProviderRejected  ProviderStatus = "REJECTED"
	ProviderSuspended ProviderStatus = "SUSPENDED"
)

var providerTransitions = map[ProviderStatus][]ProviderStatus{
	ProviderPending:   {ProviderApproved, ProviderRejected},
	ProviderApproved:  {ProviderSuspended},
	ProviderSuspended: {ProviderApproved},
	ProviderRejected:  {ProviderApproved},
}

// CanBecome reports whether an admin may move a provider from s to next.
func (s ProviderStatus) CanBecome(next ProviderStatus) bool {
	for _, to := range providerTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingInProgress BookingStatus = "IN_PROGRESS"
	BookingCompleted  BookingStatus = "COMPLETED"
	BookingCancelled  BookingStatus = "CANCELLED"
	BookingDisputed   BookingStatus = "DISPUTED"
)

// Terminal reports whether no further transition may leave the status.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentFailed   PaymentStatus = "FAILED"
)

type TransactionType string

const (
	TransactionPayment TransactionType = "PAYMENT"
	TransactionRefund  TransactionType = "REFUND"
	TransactionPayout  TransactionType = "PAYOUT"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Slug string `db:"slug"`
}

type Service struct {
	ID              int64   `db:"id"`
	ProviderID      int64   `db:"provider_id"`
	CategoryID      int64   `db:"category_id"`
	Name            string  `db:"name"`
	BasePrice       float64 `db:"base_price"`
	DurationMinutes int     `db:"duration_minutes"`
	Active          bool    `db:"active"`
}

type Provider struct {
	ID                int64          `db:"id"`
	UserID            int64          `db:"user_id"`
	BusinessName      string         `db:"business_name"`
	CategoryID        int64          `db:"category_id"`
	Status            ProviderStatus `db:"status"`
	AverageRating     float64        `db:"average_rating"`
	TotalRatings      int            `db:"total_ratings"`
	TotalEarnings     float64        `db:"total_earnings"`
	ThisMonthEarnings float64        `db:"this_month_earnings"`
	PendingEarnings   float64        `db:"pending_earnings"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

type Booking struct {
	ID                 int64         `db:"id"`
	Reference          string        `db:"reference"`
	CustomerID         int64         `db:"customer_id"`
	ProviderID         int64         `db:"provider_id"`
	ServiceID          int64         `db:"service_id"`
	ScheduledAt        time.Time     `db:"scheduled_at"`
	Address            string        `db:"address"`
	Status             BookingStatus `db:"status"`
	PaymentStatus      PaymentStatus `db:"payment_status"`
	EstimatedPrice     float64       `db:"estimated_price"`
	ActualPrice        float64       `db:"actual_price"`
	PlatformFee        float64       `db:"platform_fee"`
	ProviderEarnings   float64       `db:"provider_earnings"`
	NeedsReview        bool          `db:"needs_review"`
	CancellationReason string        `db:"cancellation_reason"`
	DisputedFrom       BookingStatus `db:"disputed_from"`
	CreatedAt          time.Time     `db:"created_at"`
	ConfirmedAt        *time.Time    `db:"confirmed_at"`
	StartedAt          *time.Time    `db:"started_at"`
	CompletedAt        *time.Time    `db:"completed_at"`
	CancelledAt        *time.Time    `db:"cancelled_at"`
	DisputedAt         *time.Time    `db:"disputed_at"`
}

// ChargeAmount is what the customer owes: the actual price once the job is
// completed, the estimate before that.
func (b *Booking) ChargeAmount() float64 {
	if b.Status == BookingCompleted {
		return b.ActualPrice
	}
	return b.EstimatedPrice
}

type Transaction struct {
	ID          int64             `db:"id"`
	BookingID   int64             `db:"booking_id"`
	ProviderID  int64             `db:"provider_id"`
	Type        TransactionType   `db:"type"`
	Status      TransactionStatus `db:"status"`
	Amount      float64           `db:"amount"`
	Method      string            `db:"method"`
	ExternalID  string            `db:"external_id"`
	CreatedAt   time.Time         `db:"created_at"`
	CompletedAt *time.Time        `db:"completed_at"`
}

type Review struct {
	ID         int64     `db:"id"`
	BookingID  int64     `db:"booking_id"`
	ProviderID int64     `db:"provider_id"`
	CustomerID int64     `db:"customer_id"`
	Rating     int       `db:"rating"`
	Comment    string    `db:"comment"`
	CreatedAt  time.Time `db:"created_at"`
}

// BookingEvent is one row of the booking audit trail.
type BookingEvent struct {
	ID         int64         `db:"id"`
	BookingID  int64         `db:"booking_id"`
	FromStatus BookingStatus `db:"from_status"`
	ToStatus   BookingStatus `db:"to_status"`
	Action     string        `db:"action"`
	ActorID    int64         `db:"actor_id"`
	ActorRole  string        `db:"actor_role"`
	Note       string        `db:"note"`
	CreatedAt  time.Time     `db:"created_at"`
}

// EarningsSnapshot is a provider's counters as stored next to the values
// recomputed from the ledger.
type EarningsSnapshot struct {
	ProviderID      int64   `json:"provider_id"`
	TotalEarnings   float64 `json:"total_earnings"`
	PendingEarnings float64 `json:"pending_earnings"`
	LedgerTotal     float64 `json:"ledger_total"`
	LedgerPending   float64 `json:"ledger_pending"`
}
