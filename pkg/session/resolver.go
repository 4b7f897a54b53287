package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/profile"
)

// ErrFetchTimeout is the failure recorded when the profile store did not
// answer within the configured bound.
var ErrFetchTimeout = errors.New("profile fetch timed out")

// DefaultFetchTimeout bounds how long a profile fetch may race its timer.
// A tunable, not a correctness constant.
const DefaultFetchTimeout = 3 * time.Second

// Config holds resolver tunables. Zero values select defaults.
type Config struct {
	FetchTimeout time.Duration
	Clock        clockwork.Clock
	Logger       *observability.Logger
	Metrics      *observability.Metrics
}

// Resolver owns the process-wide ResolutionState. All state mutation happens
// on the single goroutine inside Run; everything else posts messages to it.
type Resolver struct {
	creds    auth.CredentialStore
	profiles profile.Store
	cfg      Config

	mu       sync.Mutex
	state    ResolutionState
	session  *auth.Session
	watchers map[int]chan ResolutionState
	watchID  int

	// Owned by the Run goroutine.
	epoch            uint64
	inflight         bool
	inflightIdentity auth.Identity

	cmds    chan command
	results chan fetchResult
}

type command int

const (
	cmdRetry command = iota
	cmdReset
)

type fetchResult struct {
	epoch    uint64
	identity auth.Identity
	profile  *profile.Profile
	err      error
	started  time.Time
}

// NewResolver creates a resolver over the credential and profile stores.
// It does nothing until Run is started.
func NewResolver(creds auth.CredentialStore, profiles profile.Store, cfg Config) *Resolver {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Resolver{
		creds:    creds,
		profiles: profiles,
		cfg:      cfg,
		state:    ResolutionState{Kind: KindUnauthenticated, Settled: false},
		watchers: make(map[int]chan ResolutionState),
		cmds:     make(chan command, 8),
		results:  make(chan fetchResult, 8),
	}
}

// State returns the current resolution state snapshot
func (r *Resolver) State() ResolutionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Session returns the current session, or nil
func (r *Resolver) Session() *auth.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Watch returns a channel receiving state snapshots after every transition,
// plus a cancel function. A watcher that stops draining misses updates rather
// than blocking the resolver.
func (r *Resolver) Watch() (<-chan ResolutionState, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.watchID
	r.watchID++
	ch := make(chan ResolutionState, 16)
	r.watchers[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if w, ok := r.watchers[id]; ok {
			delete(r.watchers, id)
			close(w)
		}
	}
	return ch, cancel
}

// Retry re-attempts the profile fetch from a degraded state. It is the only
// automatic-free recovery path: failures are terminal until the user acts.
func (r *Resolver) Retry(ctx context.Context) error {
	select {
	case r.cmds <- cmdRetry:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SignOut revokes the session via the credential store and resets local
// state. The local reset happens even when the remote call fails.
func (r *Resolver) SignOut(ctx context.Context) error {
	err := r.creds.SignOut(ctx)
	select {
	case r.cmds <- cmdReset:
	case <-ctx.Done():
	}
	return err
}

// Run subscribes to credential events, performs the initial cached-session
// check, and then serializes every state transition until ctx is cancelled.
func (r *Resolver) Run(ctx context.Context) error {
	events, unsubscribe := r.creds.Subscribe()
	defer unsubscribe()

	r.initialize(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.handleEvent(ctx, ev)
		case res := <-r.results:
			r.handleResult(res)
		case cmd := <-r.cmds:
			r.handleCommand(ctx, cmd)
		}
	}
}

// initialize reads the cached session. No session settles the state as
// unauthenticated immediately; a session starts the first fetch.
func (r *Resolver) initialize(ctx context.Context) {
	cached, err := r.creds.CachedSession(ctx)
	if err != nil {
		r.cfg.Logger.WithError(err).Warn("cached session read failed")
	}
	if cached == nil {
		r.setSession(nil)
		r.setState(ResolutionState{Kind: KindUnauthenticated})
		return
	}

	r.setSession(cached)
	r.setState(ResolutionState{Kind: KindResolving})
	r.startFetch(ctx, cached.Identity)
}

func (r *Resolver) handleEvent(ctx context.Context, ev auth.Event) {
	if r.cfg.Metrics != nil {
		r.cfg.Metrics.CredentialEventsTotal.WithLabelValues(string(ev.Type)).Inc()
	}

	switch ev.Type {
	case auth.EventSignedOut:
		r.reset()

	case auth.EventSignedIn, auth.EventTokenRefreshed:
		if ev.Session == nil {
			r.cfg.Logger.Warnf("%s event without session ignored", ev.Type)
			return
		}
		r.handleSignIn(ctx, ev.Session)

	default:
		r.cfg.Logger.Warnf("unknown credential event %q ignored", ev.Type)
	}
}

// handleSignIn stores the new session and starts a fetch unless one is
// already in flight for the same identity (ignored, not queued).
func (r *Resolver) handleSignIn(ctx context.Context, s *auth.Session) {
	prev := r.Session()
	sameIdentity := prev != nil && prev.Identity == s.Identity
	r.setSession(s)

	if r.inflight && sameIdentity && r.inflightIdentity == s.Identity {
		r.cfg.Logger.WithField("identity", string(s.Identity)).
			Debug("fetch already in flight, duplicate request ignored")
		return
	}

	if !sameIdentity {
		// A different principal: results tagged with the old epoch must
		// never apply to the new one.
		r.epoch++
		r.inflight = false
	}

	// A token refresh for an already-resolved identity revalidates the
	// profile silently instead of flashing back to resolving.
	if !(sameIdentity && r.State().Kind == KindReady) {
		r.setState(ResolutionState{Kind: KindResolving})
	}
	r.startFetch(ctx, s.Identity)
}

func (r *Resolver) handleCommand(ctx context.Context, cmd command) {
	switch cmd {
	case cmdRetry:
		state := r.State()
		s := r.Session()
		if state.Kind != KindDegraded || s == nil {
			r.cfg.Logger.Debug("retry ignored outside degraded state")
			return
		}
		r.setState(ResolutionState{Kind: KindResolving})
		r.startFetch(ctx, s.Identity)

	case cmdReset:
		r.reset()
	}
}

// reset is the sign-out transition: every state returns to unauthenticated
// and any in-flight fetch result becomes stale.
func (r *Resolver) reset() {
	r.epoch++
	r.inflight = false
	r.setSession(nil)
	r.setState(ResolutionState{Kind: KindUnauthenticated})
}

// startFetch races one profile query against the timeout timer and posts
// whichever finishes first back to the Run loop, tagged with the epoch it
// was started under. The query is not aborted mid-flight; relevance is
// checked on completion.
func (r *Resolver) startFetch(ctx context.Context, identity auth.Identity) {
	if r.inflight && r.inflightIdentity == identity {
		return
	}
	r.inflight = true
	r.inflightIdentity = identity
	epoch := r.epoch

	go func() {
		defer observability.RecoverPanic(r.cfg.Logger, "profile fetch")

		type outcome struct {
			p   *profile.Profile
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			p, err := r.profiles.FindByIdentity(ctx, identity)
			done <- outcome{p: p, err: err}
		}()

		timer := r.cfg.Clock.NewTimer(r.cfg.FetchTimeout)
		defer timer.Stop()

		res := fetchResult{epoch: epoch, identity: identity, started: time.Now()}
		select {
		case o := <-done:
			res.profile, res.err = o.p, o.err
		case <-timer.Chan():
			res.err = ErrFetchTimeout
		case <-ctx.Done():
			return
		}

		select {
		case r.results <- res:
		case <-ctx.Done():
		}
	}()
}

// handleResult applies a fetch result, discarding it when its epoch no
// longer matches (late arrival after sign-out or identity change).
func (r *Resolver) handleResult(res fetchResult) {
	if res.epoch != r.epoch {
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.StaleResultsTotal.Inc()
		}
		r.cfg.Logger.WithField("identity", string(res.identity)).
			Debug("stale fetch result discarded")
		return
	}
	r.inflight = false

	if r.cfg.Metrics != nil {
		r.cfg.Metrics.ResolutionDuration.Observe(time.Since(res.started).Seconds())
	}

	if res.err == nil {
		r.recordOutcome(observability.OutcomeReady)
		r.setState(ResolutionState{Kind: KindReady, Profile: res.profile})
		return
	}

	var outcome string
	switch {
	case errors.Is(res.err, profile.ErrNotFound):
		outcome = observability.OutcomeNotFound
	case errors.Is(res.err, ErrFetchTimeout):
		outcome = observability.OutcomeTimeout
	default:
		outcome = observability.OutcomeError
	}
	r.recordOutcome(outcome)

	// A failed silent revalidation keeps the profile we already have.
	if r.State().Kind == KindReady {
		r.cfg.Logger.WithError(res.err).Warn("profile revalidation failed, keeping current profile")
		return
	}

	r.cfg.Logger.WithError(res.err).
		WithField("identity", string(res.identity)).
		Warn("profile resolution degraded")
	r.setState(ResolutionState{Kind: KindDegraded})
}

func (r *Resolver) recordOutcome(outcome string) {
	if r.cfg.Metrics != nil {
		r.cfg.Metrics.ResolutionsTotal.WithLabelValues(outcome).Inc()
	}
}

func (r *Resolver) setSession(s *auth.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = s
}

// setState publishes a transition. Every transition after construction is a
// settled one.
func (r *Resolver) setState(state ResolutionState) {
	state.Settled = true

	r.mu.Lock()
	r.state = state
	watchers := make([]chan ResolutionState, 0, len(r.watchers))
	for _, w := range r.watchers {
		watchers = append(watchers, w)
	}
	r.mu.Unlock()

	if r.cfg.Metrics != nil {
		r.cfg.Metrics.SetResolutionState(state.Kind.String())
	}
	r.cfg.Logger.WithField("state", state.Kind.String()).Debug("resolution state changed")

	for _, w := range watchers {
		select {
		case w <- state:
		default:
		}
	}
}
