// Package refresh runs dashboard refresh cycles: read both warehouse
// sources, compute the series and KPIs, and keep the last good result.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"platinum/internal/amqp"
	"platinum/internal/cache"
	"platinum/internal/core"
	applog "platinum/internal/log"
	"platinum/internal/metrics"
	"platinum/internal/warehouse"
)

// ErrNoTargets halts a cycle before KPI derivation.
var ErrNoTargets = errors.New("targets table is empty")

// Request identifies one refresh: the refresh token in effect, the user who
// asked for it and the instant used to decide "today".
type Request struct {
	Token uint64
	User  string
	Now   time.Time
}

// Publisher announces completed refreshes.
type Publisher interface {
	PublishRefreshCompleted(ctx context.Context, routingKey string, msg *amqp.RefreshCompletedMessage) error
}

// Snapshot is what the presentation layer renders.
type Snapshot struct {
	// Dashboard is the last successful computation; Valid is false until
	// the first one.
	Dashboard core.Dashboard
	Valid     bool
	UpdatedAt time.Time
	Token     uint64

	// Err is the outcome of the most recent cycle. A non-nil Err with
	// Valid set means Dashboard is stale.
	Err error
}

type Options struct {
	CacheTTL   time.Duration
	Metrics    *metrics.Metrics
	Publisher  Publisher
	RoutingKey string
	Logger     *applog.Logger
}

type Service struct {
	wh     warehouse.Warehouse
	tables warehouse.Tables
	params core.Params

	targets  *cache.LRUCache[[]core.RawTargetRow]
	deposits *cache.LRUCache[[]core.RawDepositRow]

	metrics    *metrics.Metrics
	publisher  Publisher
	routingKey string
	logger     *applog.Logger

	token atomic.Uint64

	// cycle serialises refreshes; snapMu only guards snap.
	cycle  sync.Mutex
	snapMu sync.RWMutex
	snap   Snapshot
}

func NewService(wh warehouse.Warehouse, params core.Params, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if params.Location == nil {
		params.Location = time.UTC
	}
	return &Service{
		wh:         wh,
		tables:     wh.Tables(),
		params:     params,
		targets:    cache.NewLRUCache[[]core.RawTargetRow](8, ttl),
		deposits:   cache.NewLRUCache[[]core.RawDepositRow](8, ttl),
		metrics:    opts.Metrics,
		publisher:  opts.Publisher,
		routingKey: opts.RoutingKey,
		logger:     logger.WithComponent(applog.ComponentRefresh),
	}
}

// Caches exposes the query caches for registration with a cache.Manager.
func (s *Service) Caches() map[string]cache.Cleaner {
	return map[string]cache.Cleaner{"targets": s.targets, "deposits": s.deposits}
}

// Params returns the dashboard constants in use.
func (s *Service) Params() core.Params { return s.params }

// Tables describes the warehouse being read.
func (s *Service) Tables() warehouse.Tables { return s.tables }

// Token returns the refresh token currently in effect.
func (s *Service) Token() uint64 { return s.token.Load() }

// NextToken advances the refresh token so the next cycle bypasses the
// query cache, and returns the new value.
func (s *Service) NextToken() uint64 {
	next := s.token.Add(1)
	old := next - 1
	s.targets.Delete(cacheKey(s.tables.Targets, old))
	s.deposits.Delete(cacheKey(s.tables.Deposits, old))
	return next
}

// Current returns the latest snapshot without blocking on a running cycle.
func (s *Service) Current() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snap
}

// Load runs a cycle with the current token and returns the resulting
// snapshot. Within the cache TTL this does not hit the warehouse.
func (s *Service) Load(ctx context.Context, user string, now time.Time) Snapshot {
	_, _ = s.Refresh(ctx, Request{Token: s.Token(), User: user, Now: now})
	return s.Current()
}

// Refresh runs one cycle. On failure the previous dashboard stays in the
// snapshot and the error is recorded next to it.
func (s *Service) Refresh(ctx context.Context, req Request) (core.Dashboard, error) {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	// A cycle overtaken by a newer token must not roll the snapshot back.
	if prev := s.Current(); prev.Valid && req.Token < prev.Token {
		s.logger.DebugContext(ctx, "Skipping superseded refresh",
			applog.FieldToken, req.Token, "current_token", prev.Token)
		return prev.Dashboard, nil
	}

	if req.Now.IsZero() {
		req.Now = time.Now()
	}
	started := time.Now()
	fields := applog.NewFields().WithRefresh(req.Token, req.User).WithOperation(applog.OpRefresh)

	d, fetched, err := s.run(ctx, req)
	switch {
	case errors.Is(err, ErrNoTargets):
		s.metrics.Refresh(metrics.RefreshEmptyTarget, time.Since(started))
		s.logger.WarnContext(ctx, "Targets table is empty, keeping previous dashboard", fields.ToSlice()...)
	case err != nil:
		s.metrics.Refresh(metrics.RefreshError, time.Since(started))
		s.logger.ErrorContext(ctx, "Refresh failed, keeping previous dashboard", fields.WithError(err).ToSlice()...)
	}
	if err != nil {
		s.snapMu.Lock()
		s.snap.Err = err
		s.snapMu.Unlock()
		return core.Dashboard{}, err
	}

	// A cycle served entirely from the cache keeps the previous update time
	// and is not announced again.
	updated := req.Now.In(s.params.Location)
	s.snapMu.Lock()
	prev := s.snap
	fresh := fetched || !prev.Valid || prev.Token != req.Token
	if !fresh {
		updated = prev.UpdatedAt
	}
	s.snap = Snapshot{Dashboard: d, Valid: true, UpdatedAt: updated, Token: req.Token}
	s.snapMu.Unlock()

	s.metrics.Refresh(metrics.RefreshOK, time.Since(started))
	s.metrics.Snapshot(d.KPIs.PercentOfGoal, d.KPIs.CurrentRealized, d.DroppedTargetRows, d.DroppedDepositRows)
	s.logger.DebugContext(ctx, "Refresh completed",
		append(fields.ToSlice(), applog.FieldDays, d.Series.Len(), applog.FieldDuration, time.Since(started).Milliseconds())...)

	if fresh {
		s.publish(ctx, req, d)
	}
	return d, nil
}

// run reports whether either table was read from the warehouse rather than
// the cache.
func (s *Service) run(ctx context.Context, req Request) (core.Dashboard, bool, error) {
	var (
		rawTargets  []core.RawTargetRow
		rawDeposits []core.RawDepositRow
		fetched     atomic.Bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, miss, err := cached(gctx, s, s.targets, cacheKey(s.tables.Targets, req.Token), s.wh.ReadTargets)
		if err != nil {
			s.metrics.QueryError(s.tables.Targets)
			return fmt.Errorf("read targets: %w", err)
		}
		if miss {
			fetched.Store(true)
		}
		rawTargets = rows
		return nil
	})
	g.Go(func() error {
		rows, miss, err := cached(gctx, s, s.deposits, cacheKey(s.tables.Deposits, req.Token), s.wh.ReadDeposits)
		if err != nil {
			s.metrics.QueryError(s.tables.Deposits)
			return fmt.Errorf("read deposits: %w", err)
		}
		if miss {
			fetched.Store(true)
		}
		rawDeposits = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, false, err
	}

	if len(rawTargets) == 0 {
		return core.Dashboard{}, false, ErrNoTargets
	}

	d := core.Compute(rawTargets, rawDeposits, req.Now, s.params)
	if d.DroppedTargetRows == len(rawTargets) {
		return core.Dashboard{}, false, fmt.Errorf("%w: all %d rows have unparseable dates", ErrNoTargets, len(rawTargets))
	}
	if d.DroppedTargetRows > 0 {
		s.logger.WarnContext(ctx, "Dropped target rows with unparseable dates",
			applog.FieldTable, s.tables.Targets, applog.FieldDropped, d.DroppedTargetRows)
	}
	if d.DroppedDepositRows > 0 {
		s.logger.WarnContext(ctx, "Dropped deposit rows with unparseable dates",
			applog.FieldTable, s.tables.Deposits, applog.FieldDropped, d.DroppedDepositRows)
	}
	if d.Series.TargetSeeded {
		s.logger.WarnContext(ctx, "Goal curve seeded from a target dated before the series start",
			"start", s.params.StartDate.String())
	}
	return d, fetched.Load(), nil
}

func (s *Service) publish(ctx context.Context, req Request, d core.Dashboard) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewRefreshCompletedMessage(req.Token, req.User, s.tables.Backend, d, req.Now)
	if err := s.publisher.PublishRefreshCompleted(ctx, s.routingKey, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish refresh event",
			applog.FieldToken, req.Token, applog.FieldError, err)
	}
}

func cacheKey(table string, token uint64) string {
	return fmt.Sprintf("%s:%d", table, token)
}

// cached returns the entry under key or loads and stores it. The bool is
// true on a miss.
func cached[T any](ctx context.Context, s *Service, c *cache.LRUCache[T], key string, load func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		s.metrics.CacheHit()
		return v, false, nil
	}
	s.metrics.CacheMiss()
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, true, err
	}
	c.Set(key, v)
	return v, true, nil
}
