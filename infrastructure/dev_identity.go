package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/classtream/lectures-client/domain"
)

// idClaims is the payload of an issued identity token.
type idClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// DevIdentity is an in-process identity provider for the dev harness and
// tests. It mirrors the production contract exactly: tokens are short-lived
// HS256 JWTs minted fresh on every Credential call.
type DevIdentity struct {
	secret []byte
	ttl    time.Duration

	mu        sync.Mutex
	principal *domain.Principal
	listeners map[int]func(*domain.Principal)
	nextID    int
}

func NewDevIdentity(secret string, ttl time.Duration) *DevIdentity {
	return &DevIdentity{
		secret:    []byte(secret),
		ttl:       ttl,
		listeners: map[int]func(*domain.Principal){},
	}
}

func (d *DevIdentity) CurrentPrincipal() *domain.Principal {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.principal == nil {
		return nil
	}
	p := *d.principal
	return &p
}

// Credential signs a fresh token for the principal, valid for the
// configured TTL from now.
func (d *DevIdentity) Credential(_ context.Context, p domain.Principal) (domain.Credential, error) {
	now := time.Now()
	claims := idClaims{
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.secret)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to sign credential: %w", err)
	}
	return domain.Credential{Token: token}, nil
}

func (d *DevIdentity) OnSessionChange(fn func(*domain.Principal)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// SignIn starts a session and notifies listeners.
func (d *DevIdentity) SignIn(principalID, email string) {
	p := domain.Principal{ID: principalID, Email: email}
	d.notify(&p)
}

// SignOut ends the session and notifies listeners with nil.
func (d *DevIdentity) SignOut() {
	d.notify(nil)
}

func (d *DevIdentity) notify(p *domain.Principal) {
	d.mu.Lock()
	d.principal = p
	fns := make([]func(*domain.Principal), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}
