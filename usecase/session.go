package usecase

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/classtream/lectures-client/domain"
	"github.com/classtream/lectures-client/metrics"
)

// ErrNoSession reports that a session-scoped operation was attempted while
// nobody is signed in.
var ErrNoSession = errors.New("no active session")

// SessionContext ties the identity session, the resolved role, and the
// dashboard state together. It is constructed once per process and injected
// wherever session state is needed, instead of being read from the identity
// SDK's ambient globals.
type SessionContext struct {
	identity domain.IdentityProvider
	resolver *RoleResolver
	streams  domain.JobStreamer
	logger   *zap.Logger

	mu        sync.RWMutex
	principal *domain.Principal
	// sessionEnded is closed when the signed-in session it belongs to
	// ends, either by sign-out or by a replacement sign-in. Nil while
	// nobody is signed in.
	sessionEnded chan struct{}

	model *CollectionModel
}

func NewSessionContext(identity domain.IdentityProvider, resolver *RoleResolver, streams domain.JobStreamer, logger *zap.Logger) *SessionContext {
	return &SessionContext{
		identity: identity,
		resolver: resolver,
		streams:  streams,
		logger:   logger,
		model:    NewCollectionModel(),
	}
}

// Bind hooks the context to identity sign-in/sign-out transitions and
// processes the current session, if any. The returned func unhooks it.
func (s *SessionContext) Bind(ctx context.Context) (func(), error) {
	if p := s.identity.CurrentPrincipal(); p != nil {
		if err := s.signIn(ctx, *p); err != nil {
			return nil, err
		}
	}

	unsubscribe := s.identity.OnSessionChange(func(p *domain.Principal) {
		if p == nil {
			s.signOut()
			return
		}
		if err := s.signIn(ctx, *p); err != nil {
			s.logger.Error("sign-in handling failed", zap.String("principal_id", p.ID), zap.Error(err))
		}
	})
	return unsubscribe, nil
}

func (s *SessionContext) signIn(ctx context.Context, p domain.Principal) error {
	role, err := s.resolver.Resolve(ctx, p.ID, p.Email)
	if err != nil {
		return err
	}
	p.Role = role

	s.mu.Lock()
	if s.sessionEnded != nil {
		// A still-signed-in principal was replaced; the previous
		// dashboard session is over.
		close(s.sessionEnded)
	}
	s.sessionEnded = make(chan struct{})
	s.principal = &p
	s.mu.Unlock()

	s.logger.Info("session started",
		zap.String("principal_id", p.ID),
		zap.String("role", string(role)))
	return nil
}

func (s *SessionContext) signOut() {
	s.mu.Lock()
	s.principal = nil
	if s.sessionEnded != nil {
		close(s.sessionEnded)
		s.sessionEnded = nil
	}
	// The dashboard is gone; drop its selection and view. Done under the
	// same lock that closed sessionEnded, so a racing watch loop cannot
	// apply a stale snapshot afterwards.
	s.model.Deselect()
	s.model.ApplySnapshot(nil)
	s.mu.Unlock()

	s.logger.Info("session ended")
}

// Current returns the signed-in principal with its resolved role.
func (s *SessionContext) Current() (domain.Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return domain.Principal{}, false
	}
	return *s.principal, true
}

// Model returns the dashboard's collection model.
func (s *SessionContext) Model() *CollectionModel {
	return s.model
}

// WatchJobs subscribes to the job collection and applies each snapshot to
// the model for the lifetime of the current signed-in session. Snapshots
// are handled one at a time and to completion: the next delivery is not
// read until reconciliation finished. The watch ends, cancelling the
// subscription exactly once, when ctx is done or the session ends; a new
// session needs a new call. Returns ErrNoSession when nobody is signed in.
func (s *SessionContext) WatchJobs(ctx context.Context) error {
	s.mu.RLock()
	ended := s.sessionEnded
	s.mu.RUnlock()
	if ended == nil {
		return ErrNoSession
	}

	sub, err := s.streams.SubscribeJobs(ctx)
	if err != nil {
		return err
	}
	defer sub.Cancel()

	snapshots, errs := sub.Snapshots(), sub.Errs()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ended:
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			// A delivery may race the sign-out that cleared the
			// model; never apply on behalf of a dead session. The
			// check and the apply share the lock sign-out holds
			// while closing sessionEnded.
			s.mu.RLock()
			select {
			case <-ended:
				s.mu.RUnlock()
				return nil
			default:
			}
			s.model.ApplySnapshot(snap)
			s.mu.RUnlock()
			metrics.SnapshotsApplied.Inc()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			// Degraded stream: nothing to apply until the listener
			// recovers. Surface it, do not retry here.
			s.logger.Warn("job stream degraded", zap.Error(err))
		}
	}
}
