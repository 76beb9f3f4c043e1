// Package session turns authentication sessions into application
// identities. The resolved identity is handed to callers explicitly; nothing
// else in the module reads it from shared state.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"hrportal/apperr"
	"hrportal/auth"
	"hrportal/models"
)

// EmployeeLookup finds the employee linked to an external auth id. It
// returns nil, nil when no employee is linked.
type EmployeeLookup interface {
	EmployeeByAuthID(ctx context.Context, authID string) (*models.Employee, error)
}

// Linker maps auth ids to identities without holding a session. Servers
// use it once per request.
type Linker struct {
	lookup EmployeeLookup
}

func NewLinker(lookup EmployeeLookup) *Linker {
	return &Linker{lookup: lookup}
}

// ResolveAuthID maps an external auth id to the linked employee's identity.
// An authenticated but unlinked user resolves to nil.
func (l *Linker) ResolveAuthID(ctx context.Context, authID string) (*models.Identity, error) {
	emp, err := l.lookup.EmployeeByAuthID(ctx, authID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		log.Printf("[session] auth id %s is not linked to an employee", authID)
		return nil, nil
	}
	return models.IdentityFromEmployee(emp), nil
}

var ErrAlreadyStarted = errors.New("session resolver already started")

// Resolver follows the session of a single client and keeps its identity
// current.
type Resolver struct {
	provider auth.Provider
	linker   *Linker

	mu         sync.RWMutex
	identity   *models.Identity
	loading    bool
	generation uint64
	started    bool
	stopped    bool
	cancel     func()
}

func NewResolver(provider auth.Provider, lookup EmployeeLookup) *Resolver {
	return &Resolver{provider: provider, linker: NewLinker(lookup), loading: true}
}

// Start resolves the current session once and then follows session changes
// until Stop is called. A Resolver can be started only once.
func (r *Resolver) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	gen := r.generation
	r.mu.Unlock()

	// registered outside mu: the provider may call back right away
	cancel := r.provider.OnSessionChange(func(ev auth.ChangeEvent, s *auth.Session) {
		r.handleChange(context.WithoutCancel(ctx), ev, s)
	})
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		cancel()
		return nil
	}
	r.cancel = cancel
	r.mu.Unlock()

	s, err := r.provider.GetSession(ctx)
	if err != nil {
		r.apply(gen, nil)
		return &apperr.AuthError{Reason: "get session", Err: err}
	}
	if s == nil {
		r.apply(gen, nil)
		return nil
	}
	id, err := r.ResolveAuthID(ctx, s.AuthID)
	r.apply(gen, id)
	return err
}

// Stop is idempotent and safe to call before Start.
func (r *Resolver) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.stopped = true
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Current returns the resolved identity. loaded is false until the first
// resolution finished; callers must treat that as no access.
func (r *Resolver) Current() (id *models.Identity, loaded bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.identity, !r.loading
}

func (r *Resolver) ResolveAuthID(ctx context.Context, authID string) (*models.Identity, error) {
	return r.linker.ResolveAuthID(ctx, authID)
}

// Login signs in and resolves the identity. A session without an employee
// is an AuthError and leaves no identity behind.
func (r *Resolver) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	s, err := r.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	// the SignedIn listener resolves too; this call just reports the result
	id, err := r.ResolveAuthID(ctx, s.AuthID)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, &apperr.AuthError{Reason: "account is not provisioned"}
	}
	return id, nil
}

// Logout drops the identity before the provider is asked to sign out.
func (r *Resolver) Logout(ctx context.Context) error {
	r.clear()
	return r.provider.SignOut(ctx)
}

func (r *Resolver) handleChange(ctx context.Context, ev auth.ChangeEvent, s *auth.Session) {
	switch ev {
	case auth.SignedOut:
		r.clear()
	case auth.SignedIn:
		r.mu.Lock()
		r.generation++
		gen := r.generation
		r.mu.Unlock()

		if s == nil {
			r.apply(gen, nil)
			return
		}
		id, err := r.ResolveAuthID(ctx, s.AuthID)
		if err != nil {
			log.Printf("[session] resolve %s: %v", s.AuthID, err)
		}
		r.apply(gen, id)
	}
}

func (r *Resolver) clear() {
	r.mu.Lock()
	r.generation++
	r.identity = nil
	r.loading = false
	r.mu.Unlock()
}

// apply stores id unless a newer session change happened meanwhile.
func (r *Resolver) apply(gen uint64, id *models.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return
	}
	r.identity = id
	r.loading = false
}
