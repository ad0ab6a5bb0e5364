package domain

import "context"

// IdentityProvider is the external identity SDK boundary. CurrentPrincipal
// returns nil when nobody is signed in; that is a valid state, not an error.
type IdentityProvider interface {
	CurrentPrincipal() *Principal
	// Credential issues a fresh short-lived credential for the principal.
	// Implementations must not serve cached tokens past their lifetime.
	Credential(ctx context.Context, p Principal) (Credential, error)
	// OnSessionChange registers fn for sign-in/sign-out transitions and
	// returns an unsubscribe func. fn receives nil on sign-out.
	OnSessionChange(fn func(*Principal)) (unsubscribe func())
}

// UserStore is the remote `users` collection.
type UserStore interface {
	UserRole(ctx context.Context, principalID string) (Role, bool, error)
	// CreateUserIfAbsent must be idempotent at the store layer: two
	// concurrent first sign-ins converge on a single record.
	CreateUserIfAbsent(ctx context.Context, principalID, email string, role Role) error
}

// JobStreamer opens a standing subscription to the remote `videos`
// collection.
type JobStreamer interface {
	SubscribeJobs(ctx context.Context) (Subscription, error)
}

// Subscription delivers the full ordered snapshot of the collection on
// every remote mutation. Deliveries for one subscription are strictly
// ordered and never regress to an older state.
type Subscription interface {
	// Snapshots yields jobs sorted newest-first. The channel closes after
	// Cancel.
	Snapshots() <-chan []Job
	// Errs reports degraded-connection states. No snapshots arrive while
	// degraded; the underlying listener owns reconnection.
	Errs() <-chan error
	// Cancel stops deliveries and releases the connection. Idempotent and
	// safe before the first snapshot.
	Cancel()
}
