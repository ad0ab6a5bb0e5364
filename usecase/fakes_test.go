package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/classtream/lectures-client/domain"
)

// fakeIdentity is an in-memory identity provider for tests.
type fakeIdentity struct {
	mu        sync.Mutex
	principal *domain.Principal
	issued    int
	issueErr  error
	listeners map[int]func(*domain.Principal)
	nextID    int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{listeners: map[int]func(*domain.Principal){}}
}

func (f *fakeIdentity) CurrentPrincipal() *domain.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.principal == nil {
		return nil
	}
	p := *f.principal
	return &p
}

func (f *fakeIdentity) Credential(ctx context.Context, p domain.Principal) (domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.issueErr != nil {
		return domain.Credential{}, f.issueErr
	}
	f.issued++
	return domain.Credential{Token: fmt.Sprintf("tok-%s-%d", p.ID, f.issued)}, nil
}

func (f *fakeIdentity) OnSessionChange(fn func(*domain.Principal)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeIdentity) signIn(p domain.Principal) {
	f.mu.Lock()
	f.principal = &p
	fns := make([]func(*domain.Principal), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(&p)
	}
}

func (f *fakeIdentity) signOut() {
	f.mu.Lock()
	f.principal = nil
	fns := make([]func(*domain.Principal), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(nil)
	}
}

// fakeUserStore records role reads and create-if-absent writes.
type fakeUserStore struct {
	mu      sync.Mutex
	roles   map[string]domain.Role
	emails  map[string]string
	creates int
	readErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{roles: map[string]domain.Role{}, emails: map[string]string{}}
}

func (f *fakeUserStore) UserRole(ctx context.Context, principalID string) (domain.Role, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return "", false, f.readErr
	}
	role, ok := f.roles[principalID]
	return role, ok, nil
}

func (f *fakeUserStore) CreateUserIfAbsent(ctx context.Context, principalID, email string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if _, ok := f.roles[principalID]; ok {
		return nil
	}
	f.roles[principalID] = role
	f.emails[principalID] = email
	return nil
}

// fakeSubscription feeds scripted snapshots to a session loop.
type fakeSubscription struct {
	snapshots chan []domain.Job
	errs      chan error
	cancel    sync.Once
	cancelled chan struct{}
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{
		snapshots: make(chan []domain.Job),
		errs:      make(chan error, 1),
		cancelled: make(chan struct{}),
	}
}

func (f *fakeSubscription) Snapshots() <-chan []domain.Job { return f.snapshots }
func (f *fakeSubscription) Errs() <-chan error             { return f.errs }

func (f *fakeSubscription) Cancel() {
	f.cancel.Do(func() {
		close(f.cancelled)
		close(f.snapshots)
		close(f.errs)
	})
}

type fakeStreamer struct {
	sub *fakeSubscription
}

func (f *fakeStreamer) SubscribeJobs(ctx context.Context) (domain.Subscription, error) {
	return f.sub, nil
}
