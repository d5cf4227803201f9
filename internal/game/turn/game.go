package turn

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rogue/internal/game/behaviour"
	"github.com/cory-johannsen/rogue/internal/game/brain"
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/input"
	"github.com/cory-johannsen/rogue/internal/game/schedule"
	"github.com/cory-johannsen/rogue/internal/game/world"
)

// StopReason says why Game.Run returned.
type StopReason string

const (
	StopCancelled       StopReason = "cancelled"
	StopIdle            StopReason = "idle"
	StopQuit            StopReason = "quit"
	StopPlayerDestroyed StopReason = "player_destroyed"
	StopMaxTurns        StopReason = "max_turns"
	// StopError accompanies a non-nil error from Run.
	StopError StopReason = "error"
)

// Result summarises a finished run.
type Result struct {
	Reason StopReason
	// Turns is the number of committed actions.
	Turns uint64
	// Time is the absolute simulated time of the last entity turn.
	Time uint64
}

// GameConfig collects a Game's collaborators. World, Resolver, Library and
// Logger are required.
type GameConfig struct {
	World    *world.World
	Resolver *Resolver
	Library  *brain.Library
	Input    input.Source
	Rand     brain.Rand
	Scripts  brain.ScriptCaller
	Logger   *zap.Logger
	// MaxTurns stops the run once that many actions are committed. 0 means no limit.
	MaxTurns uint64
}

// Game schedules entity turns. Each turn observes, asks the entity's
// behaviour state for an action, resolves it and reports the outcome back.
// It is not safe for concurrent use.
type Game struct {
	world    *world.World
	resolver *Resolver
	library  *brain.Library
	input    input.Source
	rand     brain.Rand
	scripts  brain.ScriptCaller
	logger   *zap.Logger
	maxTurns uint64
	player   entity.ID

	sched   *schedule.Scheduler[entity.ID]
	tickets map[entity.ID]schedule.Ticket
	states  map[entity.ID]*brain.State
}

// NewGame builds a Game from cfg with nothing scheduled.
//
// Precondition: cfg.World, cfg.Resolver, cfg.Library and cfg.Logger must be non-nil.
func NewGame(cfg GameConfig) *Game {
	if cfg.World == nil {
		panic("turn.NewGame: world must not be nil")
	}
	if cfg.Resolver == nil {
		panic("turn.NewGame: resolver must not be nil")
	}
	if cfg.Library == nil {
		panic("turn.NewGame: behaviour library must not be nil")
	}
	if cfg.Logger == nil {
		panic("turn.NewGame: logger must not be nil")
	}
	player, _ := cfg.World.Player()
	return &Game{
		world:    cfg.World,
		resolver: cfg.Resolver,
		library:  cfg.Library,
		input:    cfg.Input,
		rand:     cfg.Rand,
		scripts:  cfg.Scripts,
		logger:   cfg.Logger,
		maxTurns: cfg.MaxTurns,
		player:   player,
		sched:    schedule.New[entity.ID](),
		tickets:  make(map[entity.ID]schedule.Ticket),
		states:   make(map[entity.ID]*brain.State),
	}
}

// Add schedules id's next turn delay time units from now, replacing any
// turn it already has.
func (g *Game) Add(id entity.ID, delay uint64) {
	if t, ok := g.tickets[id]; ok {
		g.sched.Cancel(t)
	}
	g.tickets[id] = g.sched.Insert(id, delay)
}

// Scheduled reports whether id has a pending turn.
func (g *Game) Scheduled(id entity.ID) bool {
	_, ok := g.tickets[id]
	return ok
}

// State returns id's behaviour state if it has taken a turn.
func (g *Game) State(id entity.ID) (*brain.State, bool) {
	s, ok := g.states[id]
	return s, ok
}

// Run plays turns until ctx is cancelled, nothing is scheduled, the player
// quits or is destroyed, or the turn limit is reached.
//
// Postcondition: a non-nil error is a protocol violation or a failure to
// build a behaviour state; stop conditions are reported in Result.
func (g *Game) Run(ctx context.Context) (Result, error) {
	g.logger.Info("run started",
		zap.Stringer("run_id", g.resolver.RunID()),
		zap.Int("scheduled", g.sched.Len()),
	)
	res, err := g.loop(ctx)
	res.Turns = g.resolver.Turn()
	res.Time = g.sched.Now()
	g.logger.Info("run stopped",
		zap.String("reason", string(res.Reason)),
		zap.Uint64("turns", res.Turns),
		zap.Uint64("time", res.Time),
		zap.Error(err),
	)
	return res, err
}

func (g *Game) loop(ctx context.Context) (Result, error) {
	for {
		if ctx.Err() != nil {
			return Result{Reason: StopCancelled}, nil
		}
		if g.maxTurns > 0 && g.resolver.Turn() >= g.maxTurns {
			return Result{Reason: StopMaxTurns}, nil
		}
		id, _, ok := g.sched.Next()
		if !ok {
			return Result{Reason: StopIdle}, nil
		}
		delete(g.tickets, id)
		if !g.world.Alive(id) {
			continue
		}

		stop, err := g.take(ctx, id)
		if err != nil {
			return Result{Reason: StopError}, err
		}
		if stop != "" {
			return Result{Reason: stop}, nil
		}
	}
}

// take plays one turn for id. A non-empty StopReason ends the run.
func (g *Game) take(ctx context.Context, id entity.ID) (StopReason, error) {
	state, err := g.state(id)
	if err != nil {
		return "", err
	}
	if state == nil {
		return "", nil
	}
	if !state.Running() {
		g.logger.Info("behaviour finished", zap.Stringer("entity", id))
		delete(g.states, id)
		return "", nil
	}

	store := g.resolver.Knowledge().For(id)
	if _, err := store.Observe(g.world, id, g.resolver.Turn()); err != nil {
		g.logger.Error("observation failed, entity loses its turn",
			zap.Stringer("entity", id),
			zap.Error(err),
		)
		g.reschedule(id)
		return "", nil
	}

	k := &brain.Context{
		Self:      id,
		World:     g.world,
		Knowledge: store,
		Input:     g.input,
		Rand:      g.rand,
		Scripts:   g.scripts,
		Turn:      g.resolver.Turn(),
	}
	a, err := state.Run(k)
	switch {
	case errors.Is(err, input.ErrQuit):
		return StopQuit, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StopCancelled, nil
	case errors.Is(err, behaviour.ErrCompleted):
		g.logger.Info("behaviour finished", zap.Stringer("entity", id))
		delete(g.states, id)
		return "", nil
	case err != nil:
		g.logger.Error("behaviour failed, entity loses its turn",
			zap.Stringer("entity", id),
			zap.Error(err),
		)
		g.reschedule(id)
		return "", nil
	}

	rep, err := g.resolver.Resolve(ctx, a, g.sched.Now())
	if err != nil {
		return StopCancelled, nil
	}
	if err := state.DeclareReturn(rep.Accepted); err != nil {
		return "", fmt.Errorf("declaring return for %s: %w", id, err)
	}
	if g.apply(rep) {
		return StopPlayerDestroyed, nil
	}
	if g.world.Alive(id) {
		g.reschedule(id)
	}
	return "", nil
}

// state returns id's behaviour state, creating it on first use. It returns
// nil for entities without a behaviour.
func (g *Game) state(id entity.ID) (*brain.State, error) {
	if s, ok := g.states[id]; ok {
		return s, nil
	}
	name, ok := g.world.Behaviour(id)
	if !ok {
		return nil, nil
	}
	s, err := g.library.NewState(name)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", id, err)
	}
	g.states[id] = s
	return s, nil
}

func (g *Game) reschedule(id entity.ID) {
	speed, ok := g.world.Speed(id)
	if !ok {
		return
	}
	g.Add(id, speed)
}

// apply updates turn bookkeeping for what rep spawned and destroyed. It
// reports whether the player was destroyed.
func (g *Game) apply(rep Report) (playerDestroyed bool) {
	for _, id := range rep.Spawned {
		if _, ok := g.world.Behaviour(id); ok {
			g.reschedule(id)
		}
	}
	for _, id := range rep.Destroyed {
		if t, ok := g.tickets[id]; ok {
			g.sched.Cancel(t)
			delete(g.tickets, id)
		}
		delete(g.states, id)
		g.resolver.Knowledge().Drop(id)
		if id == g.player {
			playerDestroyed = true
		}
	}
	return playerDestroyed
}
