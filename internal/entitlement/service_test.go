package entitlement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cardbuddy/cardbuddy/internal/entitlement"
)

// Mock implementations
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, userID string) (*entitlement.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Record), args.Error(1)
}

func (m *mockStore) FindByCustomerID(ctx context.Context, customerID string) (*entitlement.Record, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Record), args.Error(1)
}

func (m *mockStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*entitlement.Record, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Record), args.Error(1)
}

func (m *mockStore) ApplyState(ctx context.Context, userID string, st entitlement.State) (bool, error) {
	args := m.Called(ctx, userID, st)
	return args.Bool(0), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req entitlement.CheckoutRequest) (*entitlement.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.CheckoutSession), args.Error(1)
}

func (m *mockProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*entitlement.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.CheckoutSession), args.Error(1)
}

func (m *mockProvider) GetSubscription(ctx context.Context, subscriptionID string) (*entitlement.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Subscription), args.Error(1)
}

func (m *mockProvider) FindSubscription(ctx context.Context, customerID string) (*entitlement.Subscription, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Subscription), args.Error(1)
}

func (m *mockProvider) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) ParseWebhookEvent(payload []byte, signature string) (*entitlement.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.WebhookEvent), args.Error(1)
}

func (m *mockProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	args := m.Called(ctx, customerID, returnURL)
	return args.String(0), args.Error(1)
}

func newTestService(store *mockStore, provider *mockProvider) *entitlement.Service {
	return entitlement.NewService(store, provider, entitlement.Config{
		Domain:    "https://cardbuddy.test",
		PlanLabel: "premium",
	}, nil)
}

func TestService_IsPremium(t *testing.T) {
	t.Parallel()

	t.Run("no record means no entitlement", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		store.On("Get", mock.Anything, "u1").Return(nil, entitlement.ErrRecordNotFound)

		ok, err := newTestService(store, provider).IsPremium(context.Background(), "u1")
		require.NoError(t, err)
		assert.False(t, ok)
		store.AssertExpectations(t)
	})

	t.Run("active subscription grants access", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		store.On("Get", mock.Anything, "u1").Return(&entitlement.Record{
			UserID:       "u1",
			Subscription: &entitlement.SubscriptionState{Status: entitlement.StatusActive},
		}, nil)

		ok, err := newTestService(store, provider).IsPremium(context.Background(), "u1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("past due subscription denies access", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		store.On("Get", mock.Anything, "u1").Return(&entitlement.Record{
			UserID:       "u1",
			Subscription: &entitlement.SubscriptionState{Status: entitlement.StatusPastDue},
		}, nil)

		ok, err := newTestService(store, provider).IsPremium(context.Background(), "u1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("store failure surfaces to the caller", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		storeErr := errors.New("connection reset")
		store.On("Get", mock.Anything, "u1").Return(nil, storeErr)

		ok, err := newTestService(store, provider).IsPremium(context.Background(), "u1")
		require.ErrorIs(t, err, storeErr)
		assert.False(t, ok)
	})
}

func TestService_StartCheckout(t *testing.T) {
	t.Parallel()

	t.Run("builds redirect URLs from the configured domain", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("CreateCheckoutSession", mock.Anything, entitlement.CheckoutRequest{
			UserID:     "u1",
			Email:      "u1@example.com",
			SuccessURL: "https://cardbuddy.test/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:  "https://cardbuddy.test/cancel",
		}).Return(&entitlement.CheckoutSession{ID: "cs_1", URL: "https://pay.test/cs_1"}, nil)

		sess, err := newTestService(store, provider).StartCheckout(context.Background(), "u1", "u1@example.com")
		require.NoError(t, err)
		assert.Equal(t, "https://pay.test/cs_1", sess.URL)
		provider.AssertExpectations(t)
	})

	t.Run("processor rejection surfaces without retry", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(nil, entitlement.ErrProviderError).Once()

		_, err := newTestService(store, provider).StartCheckout(context.Background(), "u1", "u1@example.com")
		require.ErrorIs(t, err, entitlement.ErrProviderError)
		provider.AssertExpectations(t)
	})
}

func TestService_ConfirmCheckout(t *testing.T) {
	t.Parallel()

	t.Run("applies live subscription state", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("GetCheckoutSession", mock.Anything, "cs_1").Return(&entitlement.CheckoutSession{
			ID:             "cs_1",
			UserID:         "u1",
			CustomerID:     "cus_1",
			SubscriptionID: "sub_1",
		}, nil)
		provider.On("GetSubscription", mock.Anything, "sub_1").Return(&entitlement.Subscription{
			ID:               "sub_1",
			CustomerID:       "cus_1",
			Status:           entitlement.StatusActive,
			CurrentPeriodEnd: 1760000000,
		}, nil)
		store.On("ApplyState", mock.Anything, "u1", mock.MatchedBy(func(st entitlement.State) bool {
			return st.Status == entitlement.StatusActive &&
				st.SubscriptionID == "sub_1" &&
				st.CustomerID == "cus_1" &&
				st.CurrentPeriodEnd == 1760000000 &&
				st.EventTime > 0
		})).Return(true, nil)

		err := newTestService(store, provider).ConfirmCheckout(context.Background(), "cs_1")
		require.NoError(t, err)
		store.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("rejects session without user metadata", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("GetCheckoutSession", mock.Anything, "cs_1").Return(&entitlement.CheckoutSession{
			ID:             "cs_1",
			SubscriptionID: "sub_1",
		}, nil)

		err := newTestService(store, provider).ConfirmCheckout(context.Background(), "cs_1")
		require.ErrorIs(t, err, entitlement.ErrMissingUserMetadata)
		store.AssertNotCalled(t, "ApplyState", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects session without subscription reference", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("GetCheckoutSession", mock.Anything, "cs_1").Return(&entitlement.CheckoutSession{
			ID:     "cs_1",
			UserID: "u1",
		}, nil)

		err := newTestService(store, provider).ConfirmCheckout(context.Background(), "cs_1")
		require.ErrorIs(t, err, entitlement.ErrNoSubscriptionInSession)
		store.AssertNotCalled(t, "ApplyState", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_HandleWebhook(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1"}`)
	const sig = "t=1,v1=deadbeef"

	t.Run("checkout completed reads the subscription and applies it", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("ParseWebhookEvent", payload, sig).Return(&entitlement.WebhookEvent{
			Type:           entitlement.EventCheckoutCompleted,
			UserID:         "u1",
			CustomerID:     "cus_1",
			SubscriptionID: "sub_1",
			Created:        1750000000,
		}, nil)
		provider.On("GetSubscription", mock.Anything, "sub_1").Return(&entitlement.Subscription{
			ID:         "sub_1",
			CustomerID: "cus_1",
			Status:     entitlement.StatusActive,
		}, nil)
		store.On("ApplyState", mock.Anything, "u1", mock.MatchedBy(func(st entitlement.State) bool {
			return st.Status == entitlement.StatusActive && st.EventTime == 1750000000
		})).Return(true, nil)

		err := newTestService(store, provider).HandleWebhook(context.Background(), payload, sig)
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("checkout completed without user metadata is rejected", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("ParseWebhookEvent", payload, sig).Return(&entitlement.WebhookEvent{
			Type:           entitlement.EventCheckoutCompleted,
			SubscriptionID: "sub_1",
		}, nil)

		err := newTestService(store, provider).HandleWebhook(context.Background(), payload, sig)
		require.ErrorIs(t, err, entitlement.ErrMissingUserMetadata)
		store.AssertNotCalled(t, "ApplyState", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("subscription updated resolves the user by customer reference", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("ParseWebhookEvent", payload, sig).Return(&entitlement.WebhookEvent{
			Type:             entitlement.EventSubscriptionUpdated,
			CustomerID:       "cus_1",
			SubscriptionID:   "sub_1",
			Status:           entitlement.StatusPastDue,
			CurrentPeriodEnd: 1760000000,
			Created:          1750000100,
		}, nil)
		store.On("FindByCustomerID", mock.Anything, "cus_1").Return(&entitlement.Record{
			UserID:            "u1",
			PaymentCustomerID: "cus_1",
			Subscription:      &entitlement.SubscriptionState{Status: entitlement.StatusActive, Plan: "premium"},
		}, nil)
		store.On("ApplyState", mock.Anything, "u1", entitlement.State{
			Status:           entitlement.StatusPastDue,
			Plan:             "premium",
			SubscriptionID:   "sub_1",
			CustomerID:       "cus_1",
			CurrentPeriodEnd: 1760000000,
			EventTime:        1750000100,
		}).Return(true, nil)

		err := newTestService(store, provider).HandleWebhook(context.Background(), payload, sig)
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("update for unknown customer creates no record", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("ParseWebhookEvent", payload, sig).Return(&entitlement.WebhookEvent{
			Type:           entitlement.EventSubscriptionUpdated,
			CustomerID:     "cus_stranger",
			SubscriptionID: "sub_1",
			Status:         entitlement.StatusActive,
		}, nil)
		store.On("FindByCustomerID", mock.Anything, "cus_stranger").
			Return(nil, entitlement.ErrRecordNotFound)

		err := newTestService(store, provider).HandleWebhook(context.Background(), payload, sig)
		require.ErrorIs(t, err, entitlement.ErrRecordNotFound)
		store.AssertNotCalled(t, "ApplyState", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("subscription deleted marks the record cancelled", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("ParseWebhookEvent", payload, sig).Return(&entitlement.WebhookEvent{
			Type:           entitlement.EventSubscriptionDeleted,
			SubscriptionID: "sub_1",
			Created:        1750000200,
		}, nil)
		store.On("FindBySubscriptionID", mock.Anything, "sub_1").Return(&entitlement.Record{
			UserID:            "u1",
			PaymentCustomerID: "cus_1",
			Subscription:      &entitlement.SubscriptionState{Status: entitlement.StatusActive, Plan: "premium"},
		}, nil)
		store.On("ApplyState", mock.Anything, "u1", mock.MatchedBy(func(st entitlement.State) bool {
			return st.Status == entitlement.StatusCancelled && st.EventTime == 1750000200
		})).Return(true, nil)

		err := newTestService(store, provider).HandleWebhook(context.Background(), payload, sig)
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("unrecognized events are acknowledged without writes", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("ParseWebhookEvent", payload, sig).Return(&entitlement.WebhookEvent{
			Type:          entitlement.EventIgnored,
			ProviderEvent: "invoice.paid",
		}, nil)

		err := newTestService(store, provider).HandleWebhook(context.Background(), payload, sig)
		require.NoError(t, err)
		store.AssertNotCalled(t, "ApplyState", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("signature failure surfaces", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("ParseWebhookEvent", payload, "bogus").
			Return(nil, entitlement.ErrInvalidSignature)

		err := newTestService(store, provider).HandleWebhook(context.Background(), payload, "bogus")
		require.ErrorIs(t, err, entitlement.ErrInvalidSignature)
	})

	t.Run("stale event is dropped silently", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		provider.On("ParseWebhookEvent", payload, sig).Return(&entitlement.WebhookEvent{
			Type:           entitlement.EventSubscriptionUpdated,
			CustomerID:     "cus_1",
			SubscriptionID: "sub_1",
			Status:         entitlement.StatusActive,
			Created:        1000,
		}, nil)
		store.On("FindByCustomerID", mock.Anything, "cus_1").Return(&entitlement.Record{
			UserID:            "u1",
			PaymentCustomerID: "cus_1",
			Subscription: &entitlement.SubscriptionState{
				Status:    entitlement.StatusCancelled,
				EventTime: 2000,
			},
		}, nil)
		store.On("ApplyState", mock.Anything, "u1", mock.Anything).Return(false, nil)

		err := newTestService(store, provider).HandleWebhook(context.Background(), payload, sig)
		require.NoError(t, err)
	})
}

func TestService_Repair(t *testing.T) {
	t.Parallel()

	t.Run("uses the stored customer reference when present", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		store.On("Get", mock.Anything, "u1").Return(&entitlement.Record{
			UserID:            "u1",
			PaymentCustomerID: "cus_1",
		}, nil)
		provider.On("FindSubscription", mock.Anything, "cus_1").Return(&entitlement.Subscription{
			ID:               "sub_1",
			CustomerID:       "cus_1",
			Status:           entitlement.StatusActive,
			CurrentPeriodEnd: 1760000000,
		}, nil)
		store.On("ApplyState", mock.Anything, "u1", mock.MatchedBy(func(st entitlement.State) bool {
			return st.Status == entitlement.StatusActive && st.CustomerID == "cus_1" && st.EventTime > 0
		})).Return(true, nil)

		res, err := newTestService(store, provider).Repair(context.Background(), "u1", "u1@example.com")
		require.NoError(t, err)
		assert.Equal(t, "cus_1", res.CustomerID)
		assert.Equal(t, "sub_1", res.SubscriptionID)
		assert.Equal(t, entitlement.StatusActive, res.Status)
		provider.AssertNotCalled(t, "FindCustomerByEmail", mock.Anything, mock.Anything)
	})

	t.Run("falls back to email search without a stored reference", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		store.On("Get", mock.Anything, "u1").Return(nil, entitlement.ErrRecordNotFound)
		provider.On("FindCustomerByEmail", mock.Anything, "u1@example.com").Return("cus_9", nil)
		provider.On("FindSubscription", mock.Anything, "cus_9").Return(&entitlement.Subscription{
			ID:         "sub_9",
			CustomerID: "cus_9",
			Status:     entitlement.StatusActive,
		}, nil)
		store.On("ApplyState", mock.Anything, "u1", mock.Anything).Return(true, nil)

		res, err := newTestService(store, provider).Repair(context.Background(), "u1", "u1@example.com")
		require.NoError(t, err)
		assert.Equal(t, "cus_9", res.CustomerID)
	})

	t.Run("no customer anywhere means nothing is written", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		store.On("Get", mock.Anything, "u1").Return(nil, entitlement.ErrRecordNotFound)
		provider.On("FindCustomerByEmail", mock.Anything, "u1@example.com").
			Return("", entitlement.ErrCustomerNotFound)

		_, err := newTestService(store, provider).Repair(context.Background(), "u1", "u1@example.com")
		require.ErrorIs(t, err, entitlement.ErrCustomerNotFound)
		store.AssertNotCalled(t, "ApplyState", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("customer without subscriptions means nothing is written", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		store.On("Get", mock.Anything, "u1").Return(&entitlement.Record{
			UserID:            "u1",
			PaymentCustomerID: "cus_1",
		}, nil)
		provider.On("FindSubscription", mock.Anything, "cus_1").
			Return(nil, entitlement.ErrSubscriptionNotFound)

		_, err := newTestService(store, provider).Repair(context.Background(), "u1", "")
		require.ErrorIs(t, err, entitlement.ErrSubscriptionNotFound)
		store.AssertNotCalled(t, "ApplyState", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_PortalLink(t *testing.T) {
	t.Parallel()

	t.Run("returns a portal URL for a known customer", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		store.On("Get", mock.Anything, "u1").Return(&entitlement.Record{
			UserID:            "u1",
			PaymentCustomerID: "cus_1",
		}, nil)
		provider.On("CreatePortalSession", mock.Anything, "cus_1", "https://cardbuddy.test/dashboard").
			Return("https://pay.test/portal/cus_1", nil)

		url, err := newTestService(store, provider).PortalLink(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "https://pay.test/portal/cus_1", url)
	})

	t.Run("record without a customer reference", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		provider := &mockProvider{}
		store.On("Get", mock.Anything, "u1").Return(&entitlement.Record{UserID: "u1"}, nil)

		_, err := newTestService(store, provider).PortalLink(context.Background(), "u1")
		require.ErrorIs(t, err, entitlement.ErrCustomerNotFound)
	})
}
