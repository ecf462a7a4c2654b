// Package session owns the process-wide login state: the token, where it is
// persisted, and who needs to hear when it changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"tableflip.dev/diary/pkg/store"
)

// ErrLoginRequired is returned by Require when no token is present.
var ErrLoginRequired = errors.New("session: login required")

// Authenticator exchanges credentials with the server.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, email, password, nickname string) error
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

// Gate holds the session token. The zero value is not usable; call New and
// then Init.
type Gate struct {
	store store.Credentials
	log   *zap.Logger

	mu    sync.RWMutex
	token string

	subsMu sync.Mutex
	subs   map[int]func(bool)
	nextID int
}

// New returns a gate persisting to s.
func New(s store.Credentials, opts ...Option) *Gate {
	g := &Gate{
		store: s,
		log:   zap.NewNop(),
		subs:  map[int]func(bool){},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Init loads the persisted token.
func (g *Gate) Init() error {
	token, err := g.store.Token()
	if err != nil {
		return fmt.Errorf("session: init: %w", err)
	}
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
	return nil
}

// Token returns the current token, "" when logged out. It satisfies
// api.TokenSource.
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// Authenticated reports whether a token is present. The server may still
// reject it.
func (g *Gate) Authenticated() bool {
	return g.Token() != ""
}

// Require returns ErrLoginRequired when no token is present.
func (g *Gate) Require() error {
	if !g.Authenticated() {
		return ErrLoginRequired
	}
	return nil
}

// Set stores token and notifies subscribers.
func (g *Gate) Set(token string) error {
	if err := g.store.SetToken(token); err != nil {
		return fmt.Errorf("session: set: %w", err)
	}
	g.swap(token)
	return nil
}

// Clear removes the token and notifies subscribers.
func (g *Gate) Clear() error {
	g.swap("")
	if err := g.store.ClearToken(); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Logout is Clear.
func (g *Gate) Logout() error {
	return g.Clear()
}

// Expire clears a token the server rejected.
func (g *Gate) Expire() {
	g.log.Debug("session expired")
	if err := g.Clear(); err != nil {
		g.log.Warn("clearing expired session", zap.Error(err))
	}
}

func (g *Gate) swap(token string) {
	g.mu.Lock()
	changed := g.token != token
	g.token = token
	g.mu.Unlock()
	if changed {
		g.notify(token != "")
	}
}

// Subscribe calls fn with the new authenticated state whenever the token
// changes. The returned func removes fn.
func (g *Gate) Subscribe(fn func(authenticated bool)) (cancel func()) {
	g.subsMu.Lock()
	defer g.subsMu.Unlock()
	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	return func() {
		g.subsMu.Lock()
		defer g.subsMu.Unlock()
		delete(g.subs, id)
	}
}

func (g *Gate) notify(authenticated bool) {
	g.subsMu.Lock()
	subs := make([]func(bool), 0, len(g.subs))
	for _, fn := range g.subs {
		subs = append(subs, fn)
	}
	g.subsMu.Unlock()
	for _, fn := range subs {
		fn(authenticated)
	}
}

// Login validates c, exchanges it for a token and persists the token.
func (g *Gate) Login(ctx context.Context, auth Authenticator, c Credentials) error {
	if err := c.Validate(); err != nil {
		return err
	}
	token, err := auth.Login(ctx, c.Email, c.Password)
	if err != nil {
		return fmt.Errorf("session: login: %w", err)
	}
	return g.Set(token)
}

// Signup validates r and registers the account. It does not log in.
func (g *Gate) Signup(ctx context.Context, auth Authenticator, r Registration) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := auth.Signup(ctx, r.Email, r.Password, r.Nickname); err != nil {
		return fmt.Errorf("session: signup: %w", err)
	}
	return nil
}

// Watch follows the credential store so logins and logouts made by other
// processes reach subscribers. It returns once the watch is established.
func (g *Gate) Watch(ctx context.Context) error {
	events, err := g.store.Watch(ctx)
	if err != nil {
		return fmt.Errorf("session: watch: %w", err)
	}
	go func() {
		for ev := range events {
			token, err := g.store.Token()
			if err != nil {
				g.log.Warn("reading token after store event", zap.Stringer("event", ev.Type), zap.Error(err))
				continue
			}
			g.log.Debug("store event", zap.Stringer("event", ev.Type), zap.Bool("authenticated", token != ""))
			g.swap(token)
		}
	}()
	return nil
}

// Info describes a token as far as the client can tell without verifying it.
type Info struct {
	// Opaque is set when the token is not a JWT.
	Opaque    bool
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry in the past.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Claims decodes the token payload without verifying the signature. The
// server remains the only authority on whether the token is valid.
func (g *Gate) Claims() (Info, error) {
	token := g.Token()
	if token == "" {
		return Info{}, ErrLoginRequired
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Info{Opaque: true}, nil
	}
	info := Info{}
	info.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if email, ok := claims["email"].(string); ok {
		info.Email = email
	}
	return info, nil
}
