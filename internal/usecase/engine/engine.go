// Package engine wires the loader, synthesizer, router, reporter and
// snapshot store into one façade. It owns the cached synthesis pass and
// serializes recomputes so concurrent callers never observe a half-built
// pass.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"swarmroute/internal/domain"
	"swarmroute/internal/infra/config"
	"swarmroute/internal/usecase/report"
	"swarmroute/internal/usecase/routing"
	"swarmroute/internal/usecase/synthesis"
)

// Store breaker settings: a dead disk opens the circuit after a few
// ticks instead of stalling every pass on a slow failing write.
const (
	storeBreakerFailures uint32 = 3
	storeBreakerTimeout         = 30 * time.Second
)

// Engine is the top-level intelligence façade. All methods are safe for
// concurrent use.
type Engine struct {
	synth    *synthesis.Synthesizer
	router   *routing.Router
	reporter *report.Reporter
	store    domain.IntelligenceStore
	breaker  *gobreaker.CircuitBreaker[struct{}]
	limiter  *rate.Limiter
	logger   *slog.Logger

	mu     sync.Mutex
	pass   *synthesis.Pass
	report *domain.SwarmIntelligenceReport
	closed bool
}

// New creates an Engine. store may be nil to disable persistence.
func New(loader synthesis.SnapshotLoader, cfg *config.Config, store domain.IntelligenceStore, logger *slog.Logger) *Engine {
	e := &Engine{
		synth:    synthesis.New(loader, cfg.Scoring, logger),
		router:   routing.New(cfg.Routing, cfg.Scoring, logger),
		reporter: report.New(logger),
		store:    store,
		limiter:  rate.NewLimiter(rate.Limit(cfg.Routing.RecomputesPerSec), 1),
		logger:   logger,
	}
	if store != nil {
		e.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "snapshot-store",
			MaxRequests: 1,
			Timeout:     storeBreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= storeBreakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		})
	}
	return e
}

// Refresh runs a full synthesis pass unconditionally, regenerates the
// fleet report and persists the result. Persistence is best-effort: a
// failing store is logged and circuit-broken, never fails the pass.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEngineClosed
	}
	return e.refreshLocked(ctx)
}

func (e *Engine) refreshLocked(ctx context.Context) error {
	pass, err := e.synth.Synthesize(ctx)
	if err != nil {
		return err
	}
	e.pass = pass
	e.report = e.reporter.Generate(pass)
	e.persist(ctx, pass, e.report)
	return nil
}

func (e *Engine) persist(ctx context.Context, pass *synthesis.Pass, rep *domain.SwarmIntelligenceReport) {
	if e.store == nil {
		return
	}
	snap := &domain.IntelligenceSnapshot{
		Timestamp: pass.Timestamp,
		Agents:    pass.Agents,
		Report:    rep,
	}
	_, err := e.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, e.store.Save(ctx, snap)
	})
	if err != nil {
		e.logger.Warn("snapshot persistence failed", "error", err)
	}
}

// currentPass returns the cached pass, recomputing it when the rate
// limiter permits. The first call always synthesizes.
func (e *Engine) currentPass(ctx context.Context) (*synthesis.Pass, error) {
	if e.pass != nil && !e.limiter.Allow() {
		return e.pass, nil
	}
	if err := e.refreshLocked(ctx); err != nil {
		if e.pass != nil {
			e.logger.Warn("recompute failed, serving cached pass", "error", err)
			return e.pass, nil
		}
		return nil, err
	}
	return e.pass, nil
}

// Route synthesizes (rate-limited) and routes one task.
func (e *Engine) Route(ctx context.Context, task domain.TaskRoutingRequest, exclude []string) (domain.RoutingDecision, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.RoutingDecision{}, domain.ErrEngineClosed
	}
	if task.TaskID == "" {
		return domain.RoutingDecision{}, domain.WrapOp("route", domain.ErrInvalidTask)
	}
	pass, err := e.currentPass(ctx)
	if err != nil {
		return domain.RoutingDecision{}, err
	}
	return e.router.RouteTask(ctx, pass, task, exclude), nil
}

// Report synthesizes (rate-limited) and returns the fleet report.
func (e *Engine) Report(ctx context.Context) (*domain.SwarmIntelligenceReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, domain.ErrEngineClosed
	}
	if _, err := e.currentPass(ctx); err != nil {
		return nil, err
	}
	return e.report, nil
}

// Intelligence synthesizes (rate-limited) and returns the per-agent map.
// Callers must treat the result as read-only.
func (e *Engine) Intelligence(ctx context.Context) (map[string]*domain.AgentIntelligence, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, domain.ErrEngineClosed
	}
	pass, err := e.currentPass(ctx)
	if err != nil {
		return nil, err
	}
	return pass.Agents, nil
}

// LatestSnapshot returns the most recently persisted snapshot.
func (e *Engine) LatestSnapshot(ctx context.Context) (*domain.IntelligenceSnapshot, error) {
	if e.store == nil {
		return nil, domain.ErrNoSnapshot
	}
	return e.store.LoadLatest(ctx)
}

// Close shuts the engine down; subsequent calls fail with ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
