// Package authsession owns the client-side authentication state machine.
//
// Purpose:
//
//	Controller mediates between host code (CLI commands, embedding
//	applications), the durable session store, and the remote authentication
//	service. It resolves the stored session on startup, runs the two-step
//	login/registration flow (credential exchange, then identity fetch), honors
//	logout unconditionally, and converges to unauthenticated whenever another
//	process clears the shared session.
//
// State machine:
//
//	Uninitialized → Initializing → {Authenticated, Unauthenticated}
//
//	with Authenticated ⇄ Unauthenticated driven by login/logout/session expiry
//	and a transient error overlay that never changes the base state.
//
// Concurrency:
//
//	All methods are safe for concurrent use. Session-affecting operations carry
//	a generation counter so a stale in-flight result never clobbers a more
//	recent explicit action; a session-clear event from another context always
//	wins over an in-flight login.
package authsession

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/datacendia/datacendia-go/pkg/authapi"
	"github.com/datacendia/datacendia-go/pkg/identity"
	"github.com/datacendia/datacendia-go/pkg/sessionstore"
)

// Fallback messages shown when the service provides none.
const (
	fallbackLoginError    = "Login failed. Please try again."
	fallbackRegisterError = "Registration failed. Please try again."
)

// Service is the remote authentication API the controller depends on.
// *authapi.Client satisfies it.
type Service interface {
	Login(ctx context.Context, email, password string) (*authapi.LoginResult, error)
	Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.LoginResult, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*identity.User, error)
}

// State is an immutable snapshot of the controller.
//
// Authenticated is derived: it is true iff a user is held AND the store
// reports a live token, so it can never be true with a nil User.
type State struct {
	User          *identity.User
	Authenticated bool
	Loading       bool
	Initialized   bool
	Err           string
}

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger attaches a logger; the default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller is the session state machine. Construct it with New and release
// it with Close; it holds a subscription on the session store for its entire
// lifetime.
type Controller struct {
	svc    Service
	store  sessionstore.Store
	logger *zap.Logger

	mu           sync.Mutex
	user         *identity.User
	loading      bool
	initialized  bool
	errMsg       string
	generation   uint64 // bumped by every explicit session-affecting operation
	loadingGen   uint64 // generation that last set loading=true
	bootstrapped bool
	closed       bool

	unsubscribe func()

	watchMu   sync.Mutex
	watchNext int
	watchers  map[int]func(State)
}

// New wires the controller to a service and a store and subscribes to the
// store's change events. It does not touch the network; call Bootstrap to
// resolve the stored session.
func New(svc Service, store sessionstore.Store, opts ...Option) *Controller {
	c := &Controller{
		svc:      svc,
		store:    store,
		logger:   zap.NewNop(),
		watchers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unsubscribe = store.Subscribe(c.onStoreChange)
	return c
}

// Close releases the store subscription. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsub := c.unsubscribe
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	var user *identity.User
	if c.user != nil {
		u := *c.user
		user = &u
	}
	return State{
		User:          user,
		Authenticated: c.user != nil && c.store.Authenticated(),
		Loading:       c.loading,
		Initialized:   c.initialized,
		Err:           c.errMsg,
	}
}

// Watch registers a callback invoked with a snapshot after every state
// change. The returned cancel func removes it and is safe to call twice.
func (c *Controller) Watch(fn func(State)) (cancel func()) {
	c.watchMu.Lock()
	id := c.watchNext
	c.watchNext++
	c.watchers[id] = fn
	c.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.watchMu.Lock()
			delete(c.watchers, id)
			c.watchMu.Unlock()
		})
	}
}

func (c *Controller) notifyWatchers() {
	snap := c.State()
	c.watchMu.Lock()
	fns := make([]func(State), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.watchMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// onStoreChange handles auth-change events from the session store. A clear
// signal from any context forces local logout: the user is dropped, but the
// error field and loading flag are left alone, and no bootstrap or network
// call is triggered (the token is already gone).
func (c *Controller) onStoreChange(authenticated bool) {
	if authenticated {
		return
	}
	c.mu.Lock()
	changed := c.user != nil
	c.user = nil
	c.mu.Unlock()

	if changed {
		c.logger.Debug("session cleared by another context")
		c.notifyWatchers()
	}
}

// begin starts a session-affecting operation: bumps the generation, raises
// loading, and optionally clears the error overlay.
func (c *Controller) begin(clearErr bool) uint64 {
	c.mu.Lock()
	c.generation++
	g := c.generation
	c.loadingGen = g
	c.loading = true
	if clearErr {
		c.errMsg = ""
	}
	c.mu.Unlock()

	c.notifyWatchers()
	return g
}

// settle lowers loading iff this operation was the one that raised it. Runs
// on every exit path, so loading can never stay stuck true.
func (c *Controller) settle(g uint64) {
	c.mu.Lock()
	if c.loadingGen == g {
		c.loading = false
	}
	c.mu.Unlock()
	c.notifyWatchers()
}

// fail records a user-facing error unless a newer operation superseded this
// one.
func (c *Controller) fail(g uint64, msg string) {
	c.mu.Lock()
	if c.generation == g {
		c.errMsg = msg
	}
	c.mu.Unlock()
	c.notifyWatchers()
}

// succeed installs the fetched user unless superseded or the token vanished
// mid-flight (a cleared token makes the resulting session moot).
func (c *Controller) succeed(g uint64, user *identity.User) bool {
	c.mu.Lock()
	if c.generation != g {
		c.mu.Unlock()
		return false
	}
	if !c.store.Authenticated() {
		c.user = nil
		c.mu.Unlock()
		c.notifyWatchers()
		return false
	}
	c.user = user
	c.errMsg = ""
	c.mu.Unlock()

	c.notifyWatchers()
	return true
}

// Bootstrap resolves the stored session exactly once per controller lifetime.
// With no stored token it completes immediately without a network call; with
// one it fetches the current user and clears the tokens if the fetch shows the
// cached session is invalid. Re-entrant calls are no-ops.
func (c *Controller) Bootstrap(ctx context.Context) {
	c.mu.Lock()
	if c.bootstrapped {
		c.mu.Unlock()
		return
	}
	c.bootstrapped = true
	c.mu.Unlock()

	if !c.store.Authenticated() {
		c.mu.Lock()
		c.initialized = true
		c.mu.Unlock()
		c.notifyWatchers()
		return
	}

	g := c.begin(false)
	defer func() {
		c.mu.Lock()
		c.initialized = true
		c.mu.Unlock()
		c.settle(g)
	}()

	user, err := c.svc.CurrentUser(ctx)
	if err != nil {
		c.logger.Info("stored session could not be resolved, clearing tokens", zap.Error(err))
		if clearErr := c.store.ClearTokens(); clearErr != nil {
			c.logger.Warn("failed to clear tokens", zap.Error(clearErr))
		}
		return
	}
	c.succeed(g, user)
}

// Login runs the two-step flow: credential exchange, then identity fetch.
// Only when both succeed does the controller transition to Authenticated; any
// failure surfaces the server message (or a generic fallback) and reports
// false. The just-issued tokens are cleared when the identity fetch fails, so
// no session is ever left authenticated but userless.
func (c *Controller) Login(ctx context.Context, email, password string) bool {
	g := c.begin(true)
	defer c.settle(g)

	result, err := c.svc.Login(ctx, email, password)
	if err != nil {
		c.fail(g, messageFor(err, fallbackLoginError))
		return false
	}
	return c.completeCredentialFlow(ctx, g, result, fallbackLoginError)
}

// Register creates an account and hydrates the user, under the same two-step
// contract as Login.
func (c *Controller) Register(ctx context.Context, req authapi.RegisterRequest) bool {
	g := c.begin(true)
	defer c.settle(g)

	result, err := c.svc.Register(ctx, req)
	if err != nil {
		c.fail(g, messageFor(err, fallbackRegisterError))
		return false
	}
	return c.completeCredentialFlow(ctx, g, result, fallbackRegisterError)
}

// completeCredentialFlow is the identity-pending phase shared by Login and
// Register: persist the issued tokens, then fetch the principal.
func (c *Controller) completeCredentialFlow(ctx context.Context, g uint64, result *authapi.LoginResult, fallback string) bool {
	expiresIn := time.Duration(result.ExpiresIn) * time.Second
	if err := c.store.SetTokens(result.AccessToken, result.RefreshToken, expiresIn); err != nil {
		c.logger.Warn("failed to persist session tokens", zap.Error(err))
		c.fail(g, fallback)
		return false
	}

	user, err := c.svc.CurrentUser(ctx)
	if err != nil {
		// Credential exchange succeeded but the identity fetch did not: fail
		// closed and drop the just-issued tokens rather than leave a stored
		// session with no principal behind it.
		if clearErr := c.store.ClearTokens(); clearErr != nil {
			c.logger.Warn("failed to clear tokens after identity fetch failure", zap.Error(clearErr))
		}
		c.fail(g, messageFor(err, fallback))
		return false
	}
	return c.succeed(g, user)
}

// Logout revokes the session server-side on a best-effort basis and resets
// local state unconditionally: the user's intent to leave is honored even when
// the service is unreachable.
func (c *Controller) Logout(ctx context.Context) {
	g := c.begin(false)
	defer c.settle(g)

	if err := c.svc.Logout(ctx); err != nil {
		c.logger.Debug("server-side logout failed, continuing", zap.Error(err))
	}
	if err := c.store.ClearTokens(); err != nil {
		c.logger.Warn("failed to clear tokens on logout", zap.Error(err))
	}

	c.mu.Lock()
	c.user = nil
	c.errMsg = ""
	c.mu.Unlock()
	c.notifyWatchers()
}

// RefreshUser re-fetches the principal in the background. Without a stored
// token it is a no-op. Transport failures keep the cached user (stale but
// available) and surface no error; an authentication rejection clears the
// tokens since the cached session is invalid.
func (c *Controller) RefreshUser(ctx context.Context) {
	if !c.store.Authenticated() {
		return
	}

	c.mu.Lock()
	g := c.generation
	c.mu.Unlock()

	user, err := c.svc.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, authapi.ErrUnauthenticated) {
			c.logger.Info("session rejected during refresh, clearing tokens", zap.Error(err))
			if clearErr := c.store.ClearTokens(); clearErr != nil {
				c.logger.Warn("failed to clear tokens", zap.Error(clearErr))
			}
			return
		}
		c.logger.Debug("user refresh failed, keeping cached user", zap.Error(err))
		return
	}

	c.mu.Lock()
	if c.generation == g && c.store.Authenticated() {
		c.user = user
	}
	c.mu.Unlock()
	c.notifyWatchers()
}

// UpdateUser applies an optimistic local merge to the cached user without any
// network call, for flows that already persisted the change server-side.
// No-op when unauthenticated.
func (c *Controller) UpdateUser(patch identity.UserPatch) {
	c.mu.Lock()
	if c.user == nil {
		c.mu.Unlock()
		return
	}
	updated := patch.Apply(*c.user)
	c.user = &updated
	c.mu.Unlock()
	c.notifyWatchers()
}

// ClearError resets the error overlay. Idempotent.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
	c.notifyWatchers()
}

// HasPermission evaluates the permission against the current user's role.
func (c *Controller) HasPermission(permission string) bool {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	return identity.HasPermission(user, permission)
}

// HasRole reports whether the current user's role is in the given set.
func (c *Controller) HasRole(roles ...identity.Role) bool {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	return identity.HasRole(user, roles...)
}

// messageFor extracts the server-provided message, falling back to a generic
// string for transport failures. Never returns a stack trace or raw error.
func messageFor(err error, fallback string) string {
	var apiErr *authapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
