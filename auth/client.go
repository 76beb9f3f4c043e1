package auth

import (
	"context"
	"sync"
	"time"

	"hrportal/apperr"
)

// Client keeps the session of a single user on top of an Authenticator and
// notifies listeners when it changes.
type Client struct {
	auth Authenticator
	now  func() time.Time

	mu        sync.Mutex
	session   *Session
	listeners map[int]Listener
	nextID    int
}

func NewClient(a Authenticator) *Client {
	return &Client{auth: a, now: time.Now, listeners: make(map[int]Listener)}
}

func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Expired(c.now()) {
		c.session = nil
		return nil, nil
	}
	s := *c.session
	return &s, nil
}

func (c *Client) OnSessionChange(fn Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	s, err := c.auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.set(SignedIn, s)
	return s, nil
}

// Restore adopts a token issued earlier, e.g. one kept in a cookie.
func (c *Client) Restore(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, &apperr.AuthError{Reason: "no session", Err: apperr.ErrNoSession}
	}
	s, err := c.auth.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	c.set(SignedIn, s)
	return s, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	prev := c.session
	c.mu.Unlock()

	c.set(SignedOut, nil)

	if r, ok := c.auth.(Revoker); ok && prev != nil {
		return r.Revoke(ctx, prev.AccessToken)
	}
	return nil
}

func (c *Client) set(ev ChangeEvent, s *Session) {
	c.mu.Lock()
	c.session = s
	listeners := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(ev, s)
	}
}

var _ Provider = (*Client)(nil)
