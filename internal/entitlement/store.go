package entitlement

import "context"

// Store persists entitlement records in the document store.
//
// Lookup keys match the three reconciliation triggers: the user identity,
// the processor customer reference (subscription updated events) and the
// processor subscription reference (subscription deleted events).
type Store interface {
	// Get retrieves a record by user ID.
	// Returns ErrRecordNotFound if no record exists.
	Get(ctx context.Context, userID string) (*Record, error)

	// FindByCustomerID reverse-looks-up the record holding the given
	// payment customer reference. If two records ever share the reference
	// (paid twice race), whichever the store returns first wins; this is
	// documented, not corrected.
	FindByCustomerID(ctx context.Context, customerID string) (*Record, error)

	// FindBySubscriptionID reverse-looks-up the record holding the given
	// external subscription reference.
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*Record, error)

	// ApplyState upserts the subscription sub-record for the user,
	// creating the record if absent. The write is guarded: it applies only
	// when the stored event time is absent or not newer than st.EventTime.
	// Returns applied=false when a newer state is already stored.
	ApplyState(ctx context.Context, userID string, st State) (applied bool, err error)
}
