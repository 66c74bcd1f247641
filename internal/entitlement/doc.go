// Package entitlement gates premium features behind a paid subscription.
//
// An entitlement record per user mirrors the payment processor's view of
// that user's subscription. The record is updated from three independent
// paths (post-checkout redirect, processor webhooks, manual repair) that
// all funnel into a single guarded write, so out-of-order deliveries never
// roll an entitlement backwards.
//
// The package exposes the decision surface (IsPremium), the lifecycle
// operations (StartCheckout, ConfirmCheckout, HandleWebhook, Repair,
// PortalLink) and the persistence and processor abstractions they sit on.
package entitlement
