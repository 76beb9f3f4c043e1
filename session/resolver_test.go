package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hrportal/apperr"
	"hrportal/auth"
	"hrportal/models"
	"hrportal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passwordAuth struct{}

func (passwordAuth) Authenticate(ctx context.Context, email, password string) (*auth.Session, error) {
	if password != "pw" {
		return nil, &apperr.AuthError{Reason: "invalid credentials"}
	}
	return &auth.Session{AccessToken: "t-" + email, AuthID: "auth-" + email, Email: email}, nil
}

func (passwordAuth) Verify(ctx context.Context, token string) (*auth.Session, error) {
	return nil, &apperr.AuthError{Reason: "unused"}
}

// employees is an EmployeeLookup whose lookups can be held back.
type employees struct {
	mu      sync.Mutex
	rows    map[string]*models.Employee
	gates   map[string]chan struct{}
	blocked chan string
}

func (e *employees) EmployeeByAuthID(ctx context.Context, authID string) (*models.Employee, error) {
	e.mu.Lock()
	gate := e.gates[authID]
	emp := e.rows[authID]
	e.mu.Unlock()
	if gate != nil {
		e.blocked <- authID
		<-gate
	}
	return emp, nil
}

func directory() *employees {
	return &employees{
		rows: map[string]*models.Employee{
			"auth-ann": {ID: "emp-ann", FullName: "Ann", Email: "ann", Role: models.RoleAdmin},
			"auth-bo":  {ID: "emp-bo", FullName: "Bo", Email: "bo", Role: models.RoleEmployee},
		},
		gates:   map[string]chan struct{}{},
		blocked: make(chan string, 1),
	}
}

// listenerCount tracks how many session listeners are registered.
type listenerCount struct {
	*auth.Client
	active atomic.Int32
}

func (p *listenerCount) OnSessionChange(fn auth.Listener) func() {
	p.active.Add(1)
	cancel := p.Client.OnSessionChange(fn)
	var once sync.Once
	return func() {
		once.Do(func() {
			p.active.Add(-1)
			cancel()
		})
	}
}

func TestResolverStartsOnce(t *testing.T) {
	ctx := context.Background()
	provider := &listenerCount{Client: auth.NewClient(passwordAuth{})}
	r := session.NewResolver(provider, directory())

	require.NoError(t, r.Start(ctx))
	assert.ErrorIs(t, r.Start(ctx), session.ErrAlreadyStarted)
	assert.Equal(t, int32(1), provider.active.Load())

	r.Stop()
	r.Stop()
	assert.Equal(t, int32(0), provider.active.Load())
	assert.ErrorIs(t, r.Start(ctx), session.ErrAlreadyStarted)

	// a stopped resolver no longer follows sign-ins
	_, err := provider.SignIn(ctx, "ann", "pw")
	require.NoError(t, err)
	id, loaded := r.Current()
	assert.True(t, loaded)
	assert.Nil(t, id)
}

func TestResolverStartsUnloadedAndResolvesAnonymous(t *testing.T) {
	r := session.NewResolver(auth.NewClient(passwordAuth{}), directory())
	id, loaded := r.Current()
	assert.Nil(t, id)
	assert.False(t, loaded)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()
	id, loaded = r.Current()
	assert.Nil(t, id)
	assert.True(t, loaded)
}

func TestResolverLoginLogout(t *testing.T) {
	ctx := context.Background()
	r := session.NewResolver(auth.NewClient(passwordAuth{}), directory())
	require.NoError(t, r.Start(ctx))
	defer r.Stop()

	id, err := r.Login(ctx, "ann", "pw")
	require.NoError(t, err)
	assert.Equal(t, "emp-ann", id.ID)
	assert.True(t, id.IsAdmin())

	current, loaded := r.Current()
	assert.True(t, loaded)
	require.NotNil(t, current)
	assert.Equal(t, "emp-ann", current.ID)

	require.NoError(t, r.Logout(ctx))
	current, loaded = r.Current()
	assert.True(t, loaded)
	assert.Nil(t, current)
}

func TestResolverRejectsUnprovisionedLogin(t *testing.T) {
	ctx := context.Background()
	r := session.NewResolver(auth.NewClient(passwordAuth{}), directory())
	require.NoError(t, r.Start(ctx))
	defer r.Stop()

	_, err := r.Login(ctx, "ghost", "pw")
	assert.True(t, apperr.IsAuth(err))
	id, _ := r.Current()
	assert.Nil(t, id)

	_, err = r.Login(ctx, "ann", "bad")
	assert.True(t, apperr.IsAuth(err))
}

func TestResolverDiscardsLookupFinishingAfterSignOut(t *testing.T) {
	ctx := context.Background()
	lookup := directory()
	gate := make(chan struct{})
	lookup.gates["auth-bo"] = gate

	client := auth.NewClient(passwordAuth{})
	r := session.NewResolver(client, lookup)
	require.NoError(t, r.Start(ctx))
	defer r.Stop()

	signedIn := make(chan struct{})
	go func() {
		defer close(signedIn)
		client.SignIn(ctx, "bo", "pw")
	}()

	select {
	case authID := <-lookup.blocked:
		assert.Equal(t, "auth-bo", authID)
	case <-time.After(time.Second):
		t.Fatal("lookup never started")
	}
	require.NoError(t, client.SignOut(ctx))

	close(gate)
	<-signedIn
	id, loaded := r.Current()
	assert.True(t, loaded)
	assert.Nil(t, id)
}

func TestLinker(t *testing.T) {
	l := session.NewLinker(directory())
	id, err := l.ResolveAuthID(context.Background(), "auth-bo")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "emp-bo", id.ID)
	assert.False(t, id.IsAdmin())

	id, err = l.ResolveAuthID(context.Background(), "auth-nobody")
	require.NoError(t, err)
	assert.Nil(t, id)
}
