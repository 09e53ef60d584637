// Package scheduler keeps each active session's phase in step with the wall
// clock.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chris/mira/internal/logging"
	"github.com/chris/mira/internal/model"
	"github.com/chris/mira/internal/state"
)

const (
	DefaultSpec        = "@every 1m"
	DefaultIdleTimeout = 10 * time.Minute
	syncTimeout        = 10 * time.Second
)

// StateStore is satisfied by *state.Store.
type StateStore interface {
	GetOrCreate(ctx context.Context, userID int64) (*model.OSState, error)
	ApplyUpdate(ctx context.Context, userID int64, u state.Update) (*model.OSState, error)
	ClockPhase(ctx context.Context, userID int64) model.Phase
}

type Options struct {
	// Spec is the cron schedule for re-checking active sessions.
	Spec string
	// IdleTimeout drops sessions that have not been seen for this long.
	IdleTimeout time.Duration
	Logger      *zap.Logger
	Clock       func() time.Time
}

// PhaseSync tracks active sessions and corrects their phase on a schedule.
type PhaseSync struct {
	cron   *cron.Cron
	spec   string
	idle   time.Duration
	store  StateStore
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[int64]time.Time // userID -> last seen
}

func New(store StateStore, opts Options) *PhaseSync {
	if opts.Spec == "" {
		opts.Spec = DefaultSpec
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &PhaseSync{
		cron:     cron.New(),
		spec:     opts.Spec,
		idle:     opts.IdleTimeout,
		store:    store,
		now:      opts.Clock,
		logger:   logging.OrNop(opts.Logger).Named("phase-sync"),
		sessions: make(map[int64]time.Time),
	}
}

func (p *PhaseSync) Start() error {
	if _, err := p.cron.AddFunc(p.spec, p.Tick); err != nil {
		return fmt.Errorf("invalid phase sync schedule %q: %w", p.spec, err)
	}
	p.cron.Start()
	p.logger.Info("phase sync started", zap.String("spec", p.spec), zap.Duration("idle_timeout", p.idle))
	return nil
}

// Stop halts the schedule and waits for a running tick to finish.
func (p *PhaseSync) Stop() {
	<-p.cron.Stop().Done()
}

// Activate registers a session and syncs it right away.
func (p *PhaseSync) Activate(ctx context.Context, userID int64) (*model.OSState, error) {
	p.mu.Lock()
	p.sessions[userID] = p.now()
	p.mu.Unlock()

	st, _, err := p.Sync(ctx, userID)
	return st, err
}

// Heartbeat refreshes an active session. Inactive users are ignored.
func (p *PhaseSync) Heartbeat(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[userID]; ok {
		p.sessions[userID] = p.now()
	}
}

// Deactivate tears the session down.
func (p *PhaseSync) Deactivate(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, userID)
}

// Active lists users with a live session, in ascending order.
func (p *PhaseSync) Active() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int64, 0, len(p.sessions))
	for id := range p.sessions {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Sync writes the clock phase if it differs from the stored one. A manual
// override holds until the clock leaves the phase it was made in. It reports
// whether a write happened.
func (p *PhaseSync) Sync(ctx context.Context, userID int64) (*model.OSState, bool, error) {
	st, err := p.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	target := p.store.ClockPhase(ctx, userID)

	if st.PhaseOverride != "" && st.PhaseOverride == target {
		return st, false, nil
	}
	if st.PhaseOverride == "" && st.Phase == target {
		return st, false, nil
	}

	updated, err := p.store.ApplyUpdate(ctx, userID, state.Update{Phase: &target, FromClock: true})
	if err != nil {
		return nil, false, err
	}
	p.logger.Info("phase synced",
		zap.Int64("user_id", userID),
		zap.String("from", string(st.Phase)),
		zap.String("to", string(target)),
	)
	return updated, true, nil
}

// Tick expires idle sessions and syncs the rest. The cron job calls it.
func (p *PhaseSync) Tick() {
	now := p.now()
	var users []int64

	p.mu.Lock()
	for id, seen := range p.sessions {
		if now.Sub(seen) > p.idle {
			delete(p.sessions, id)
			p.logger.Debug("session expired", zap.Int64("user_id", id))
			continue
		}
		users = append(users, id)
	}
	p.mu.Unlock()

	for _, id := range users {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		if _, _, err := p.Sync(ctx, id); err != nil {
			p.logger.Warn("phase sync failed", zap.Int64("user_id", id), zap.Error(err))
		}
		cancel()
	}
}
