package entitlement

import "time"

// Status mirrors the payment processor's subscription status vocabulary.
// Processor statuses outside the known set are stored verbatim.
type Status string

const (
	StatusNone      Status = "none"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
)

// SubscriptionState is the embedded subscription sub-record of a user.
// Absence of the whole sub-record is equivalent to StatusNone.
type SubscriptionState struct {
	Status                 Status `bson:"status" json:"status"`
	Plan                   string `bson:"plan,omitempty" json:"plan,omitempty"`
	ExternalSubscriptionID string `bson:"external_subscription_id,omitempty" json:"-"`
	CurrentPeriodEnd       int64  `bson:"current_period_end,omitempty" json:"currentPeriodEnd,omitempty"`
	// EventTime is the epoch-second timestamp of the processor event that
	// produced this state. Writes carrying an older EventTime are dropped.
	EventTime int64 `bson:"event_time,omitempty" json:"-"`
}

// Record is the per-user entitlement document, keyed by the identity
// provider subject.
type Record struct {
	UserID            string             `bson:"_id" json:"user_id"`
	Email             string             `bson:"email,omitempty" json:"email,omitempty"`
	PaymentCustomerID string             `bson:"payment_customer_id,omitempty" json:"-"`
	Subscription      *SubscriptionState `bson:"subscription,omitempty" json:"subscription,omitempty"`

	FlashcardsGenerated   int64 `bson:"flashcards_generated,omitempty" json:"-"`
	ExplanationsGenerated int64 `bson:"explanations_generated,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}

// Status returns the subscription status, treating a missing sub-record
// as StatusNone.
func (r *Record) Status() Status {
	if r == nil || r.Subscription == nil {
		return StatusNone
	}
	return r.Subscription.Status
}

// IsPremium reports whether the record grants premium access. Only the
// literal "active" status grants access; current_period_end is stored but
// deliberately not checked.
func (r *Record) IsPremium() bool {
	return r.Status() == StatusActive
}

// State is the input to the shared reconciliation write. It fully
// overwrites the subscription sub-record and, when known, the payment
// customer reference.
type State struct {
	Status           Status
	Plan             string
	SubscriptionID   string
	CustomerID       string // set once known, never unset
	CurrentPeriodEnd int64
	EventTime        int64  // epoch seconds of the triggering event
	Email            string // optional; recorded when the trigger knows it
}
