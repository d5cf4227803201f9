// Package turn drives the simulation: the Resolver runs one entity action
// and its reactions through the rule chain into the world, and the Game
// gives every entity with a behaviour its turns.
package turn

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/knowledge"
	"github.com/cory-johannsen/rogue/internal/game/rules"
	"github.com/cory-johannsen/rogue/internal/game/schedule"
	"github.com/cory-johannsen/rogue/internal/game/world"
	"github.com/cory-johannsen/rogue/internal/journal"
	"github.com/cory-johannsen/rogue/internal/observability"
)

// DefaultWriteTimeout bounds one journal write when none is configured.
const DefaultWriteTimeout = 2 * time.Second

// Renderer draws the world for the acting entity.
type Renderer interface {
	// Render reports whether anything was redrawn.
	Render(v world.View, actor entity.ID, turn uint64) bool
}

// NopRenderer never draws.
type NopRenderer struct{}

func (NopRenderer) Render(world.View, entity.ID, uint64) bool { return false }

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits on a timer and returns ctx.Err() if ctx finishes first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResolverConfig collects a Resolver's collaborators. World, Chain, Dice and
// Logger are required; the rest have working defaults.
type ResolverConfig struct {
	World     *world.World
	Chain     *rules.Chain
	Dice      rules.Roller
	Knowledge *knowledge.Book
	Renderer  Renderer
	Journal   journal.Recorder
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	// Tracer opens one span per Resolve. nil means no-op.
	Tracer trace.Tracer
	// RunID tags journal entries. A zero RunID is replaced by a random one.
	RunID uuid.UUID
	// Pacing is the wall-clock time slept per unit of simulated time after a
	// redraw. 0 disables pacing.
	Pacing time.Duration
	// WriteTimeout bounds each journal write. 0 means DefaultWriteTimeout.
	WriteTimeout time.Duration
	// Sleep replaces the pacing sleep. nil means Sleep.
	Sleep SleepFunc
}

// Report summarises one Resolve call.
type Report struct {
	// Accepted is true if the seed action, or a substitute it was consumed
	// into, was committed.
	Accepted bool
	// Committed counts every committed action including reactions.
	Committed int
	// Drained counts scheduler entries popped.
	Drained int
	// Reactions counts reactions scheduled. Substitutes are not reactions.
	Reactions int
	// Spawned and Destroyed list every entity the commits created or removed.
	Spawned   []entity.ID
	Destroyed []entity.ID
}

// entry is one scheduled action. primary marks the seed and its substitutes.
type entry struct {
	args    action.Args
	primary bool
}

// Resolver is the commit loop. It owns the turn counter and is the only
// caller of World.Apply during play. It is not safe for concurrent use.
type Resolver struct {
	world    *world.World
	chain    *rules.Chain
	dice     rules.Roller
	book     *knowledge.Book
	renderer Renderer
	journal  journal.Recorder
	metrics  *observability.Metrics
	logger   *zap.Logger
	tracer   trace.Tracer

	run          uuid.UUID
	pacing       time.Duration
	writeTimeout time.Duration
	sleep        SleepFunc

	turn uint64
}

// NewResolver builds a Resolver from cfg.
//
// Precondition: cfg.World, cfg.Chain, cfg.Dice and cfg.Logger must be non-nil.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.World == nil {
		panic("turn.NewResolver: world must not be nil")
	}
	if cfg.Chain == nil {
		panic("turn.NewResolver: rule chain must not be nil")
	}
	if cfg.Dice == nil {
		panic("turn.NewResolver: dice roller must not be nil")
	}
	if cfg.Logger == nil {
		panic("turn.NewResolver: logger must not be nil")
	}
	r := &Resolver{
		world:        cfg.World,
		chain:        cfg.Chain,
		dice:         cfg.Dice,
		book:         cfg.Knowledge,
		renderer:     cfg.Renderer,
		journal:      cfg.Journal,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		tracer:       cfg.Tracer,
		run:          cfg.RunID,
		pacing:       cfg.Pacing,
		writeTimeout: cfg.WriteTimeout,
		sleep:        cfg.Sleep,
	}
	if r.book == nil {
		r.book = knowledge.NewBook()
	}
	if r.renderer == nil {
		r.renderer = NopRenderer{}
	}
	if r.journal == nil {
		r.journal = journal.Discard{}
	}
	if r.metrics == nil {
		r.metrics = observability.NopMetrics()
	}
	if r.tracer == nil {
		r.tracer = observability.Tracer(nil)
	}
	if r.run == uuid.Nil {
		r.run = uuid.New()
	}
	if r.writeTimeout <= 0 {
		r.writeTimeout = DefaultWriteTimeout
	}
	if r.sleep == nil {
		r.sleep = Sleep
	}
	return r
}

// Turn returns the number of actions committed so far.
func (r *Resolver) Turn() uint64 { return r.turn }

// RunID identifies this run in the journal.
func (r *Resolver) RunID() uuid.UUID { return r.run }

// Knowledge returns the book rules and renderers read.
func (r *Resolver) Knowledge() *knowledge.Book { return r.book }

// Resolve runs seed and every reaction it causes to completion. base is the
// absolute simulated time at which seed happens.
//
// Each popped action goes through the rule chain. An accepted action is
// committed and its reactions are scheduled time_delta plus their delay
// later; rejected and consumed actions schedule theirs from 0. A consumed
// action's substitute is scheduled at once, ahead of its reactions. Rule and
// commit errors skip the action and are logged and counted.
//
// Precondition: seed must be non-nil.
// Postcondition: returns a non-nil error only if ctx ended; the Report then
// covers what was committed before.
func (r *Resolver) Resolve(ctx context.Context, seed action.Args, base uint64) (rep Report, err error) {
	if seed == nil {
		panic("turn.Resolver.Resolve: seed action must not be nil")
	}
	ctx, span := r.tracer.Start(ctx, "turn.resolve", trace.WithAttributes(
		attribute.String("action.kind", string(seed.Kind())),
		attribute.Int64("action.actor", int64(seed.Actor())),
		attribute.Int64("sim.time", int64(base)),
	))
	defer func() {
		span.SetAttributes(
			attribute.Bool("accepted", rep.Accepted),
			attribute.Int("committed", rep.Committed),
			attribute.Int("drained", rep.Drained),
			attribute.Int("reactions", rep.Reactions),
		)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	s := schedule.New[entry]()
	s.Insert(entry{args: seed, primary: true}, 0)

	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		e, delta, ok := s.Next()
		if !ok {
			break
		}
		rep.Drained++
		now := base + s.Now()
		kind := string(e.args.Kind())

		if delta != 0 && r.renderer.Render(r.world, e.args.Actor(), r.turn) && r.pacing > 0 {
			if err := r.sleep(ctx, time.Duration(delta)*r.pacing); err != nil {
				return rep, err
			}
		}

		res, err := r.chain.Evaluate(r.env(now), e.args)
		if err != nil {
			span.RecordError(err, trace.WithAttributes(attribute.String("action.kind", kind)))
			r.logger.Error("rule chain failed, skipping action",
				zap.String("kind", kind),
				zap.Stringer("actor", e.args.Actor()),
				zap.Error(err),
			)
			r.metrics.RecordFailed(ctx, kind)
			continue
		}

		var baseline uint64
		switch res.Resolution {
		case rules.Accept:
			d, err := r.world.Apply(e.args)
			if err != nil {
				span.RecordError(err, trace.WithAttributes(attribute.String("action.kind", kind)))
				r.logger.Error("commit failed, skipping action",
					zap.String("kind", kind),
					zap.Stringer("actor", e.args.Actor()),
					zap.Error(err),
				)
				r.metrics.RecordFailed(ctx, kind)
				continue
			}
			r.turn++
			rep.Committed++
			rep.Accepted = rep.Accepted || e.primary
			rep.Spawned = append(rep.Spawned, d.Spawned...)
			rep.Destroyed = append(rep.Destroyed, d.Destroyed...)
			r.record(ctx, now, e.args)
			r.metrics.RecordCommitted(ctx, kind)
			baseline = delta
		case rules.Reject:
			r.logger.Debug("action rejected",
				zap.String("kind", kind),
				zap.Stringer("actor", e.args.Actor()),
				zap.String("rule", res.Rule),
			)
			r.metrics.RecordRejected(ctx, kind, res.Rule)
			span.AddEvent("rejected", trace.WithAttributes(
				attribute.String("action.kind", kind),
				attribute.String("rule", res.Rule),
			))
		case rules.Consume:
			s.Insert(entry{args: res.Action, primary: e.primary}, 0)
			r.logger.Debug("action consumed",
				zap.String("kind", kind),
				zap.String("into", string(res.Action.Kind())),
				zap.String("rule", res.Rule),
			)
			r.metrics.RecordConsumed(ctx, kind, res.Rule)
			span.AddEvent("consumed", trace.WithAttributes(
				attribute.String("action.kind", kind),
				attribute.String("into", string(res.Action.Kind())),
				attribute.String("rule", res.Rule),
			))
		}

		for _, re := range res.Reactions {
			s.Insert(entry{args: re.Action}, baseline+re.Delay)
		}
		if n := len(res.Reactions); n > 0 {
			rep.Reactions += n
			r.metrics.ReactionsScheduled.Add(ctx, int64(n))
		}
	}

	r.metrics.TurnReactions.Record(ctx, int64(rep.Reactions))
	r.renderer.Render(r.world, seed.Actor(), r.turn)
	return rep, nil
}

func (r *Resolver) env(now uint64) rules.Env {
	return rules.Env{
		World:     r.world,
		Knowledge: r.book,
		Dice:      r.dice,
		IDs:       r.world,
		Turn:      r.turn,
		Time:      now,
	}
}

// record journals a committed action. Journal failures are logged, never fatal.
func (r *Resolver) record(ctx context.Context, now uint64, a action.Args) {
	e, err := journal.NewEntry(r.run, r.turn, now, a)
	if err != nil {
		r.logger.Warn("encoding journal entry", zap.Uint64("turn", r.turn), zap.Error(err))
		return
	}
	wctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()
	if err := r.journal.Record(wctx, e); err != nil {
		r.logger.Warn("writing journal entry", zap.Uint64("turn", r.turn), zap.Error(err))
	}
}
