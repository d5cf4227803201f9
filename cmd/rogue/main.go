// Package main runs the roguelike in the terminal.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rogue/internal/config"
	"github.com/cory-johannsen/rogue/internal/game/brain"
	"github.com/cory-johannsen/rogue/internal/game/dice"
	"github.com/cory-johannsen/rogue/internal/game/input"
	"github.com/cory-johannsen/rogue/internal/game/knowledge"
	"github.com/cory-johannsen/rogue/internal/game/level"
	"github.com/cory-johannsen/rogue/internal/game/rules"
	"github.com/cory-johannsen/rogue/internal/game/turn"
	"github.com/cory-johannsen/rogue/internal/journal"
	"github.com/cory-johannsen/rogue/internal/observability"
	"github.com/cory-johannsen/rogue/internal/render"
	"github.com/cory-johannsen/rogue/internal/scripting"
	"github.com/cory-johannsen/rogue/internal/server"
	"github.com/cory-johannsen/rogue/internal/storage/postgres"
)

// version is overridden at link time.
var version = "dev"

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	seed := flag.Uint64("seed", 0, "random seed; 0 keeps engine.seed from the config")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Engine.Seed = *seed
	}

	runID := uuid.New()
	logger, err := observability.NewLogger(cfg.Logging,
		observability.WithRun(runID),
		observability.WithService("rogue", version),
	)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var src dice.Source = dice.NewCryptoSource()
	if cfg.Engine.Seed != 0 {
		src = dice.NewSeededSource(cfg.Engine.Seed)
	}
	roller := dice.NewLoggedRoller(src, logger)

	// Load content
	contentStart := time.Now()
	campaign, err := level.LoadFromFile(cfg.Content.LevelFile)
	if err != nil {
		logger.Fatal("loading campaign", zap.Error(err))
	}
	campaign.Player.Speed = cfg.Engine.PlayerSpeed
	built, err := level.Build(campaign)
	if err != nil {
		logger.Fatal("building world", zap.Error(err))
	}
	library, err := brain.LoadDir(cfg.Content.GraphsDir)
	if err != nil {
		logger.Fatal("loading behaviours", zap.Error(err))
	}
	for _, id := range built.Actors {
		if name, ok := built.World.Behaviour(id); ok && !library.Has(name) {
			logger.Fatal("entity references unknown behaviour",
				zap.Stringer("entity", id),
				zap.String("behaviour", name),
			)
		}
	}
	logger.Info("content loaded",
		zap.String("campaign", campaign.ID),
		zap.Int("levels", len(campaign.Levels)),
		zap.Int("actors", len(built.Actors)),
		zap.Strings("behaviours", library.IDs()),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	// Scripting
	scripts := scripting.NewManager(roller, logger)
	defer scripts.Close()
	scripts.QueryEntity = scripting.WorldQuery(built.World)
	scripted := false
	if cfg.Content.ScriptDir != "" {
		if err := scripts.LoadGlobal(cfg.Content.ScriptDir, cfg.Content.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading global scripts", zap.Error(err))
		}
		scripted = true
	}
	for _, lvl := range campaign.Levels {
		if lvl.ScriptDir == "" {
			continue
		}
		if err := scripts.LoadScope(lvl.ID, lvl.ScriptDir, cfg.Content.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading level scripts", zap.String("level", lvl.ID), zap.Error(err))
		}
		scripted = true
	}

	chainRules := rules.Gameplay(rules.Options{
		Stairs:      built.Stairs,
		BulletSpeed: cfg.Engine.BulletSpeed,
	})
	if scripted {
		chainRules = append(chainRules, rules.NewScript(scripts, rules.DefaultScriptHook))
	}
	chain := rules.NewChain(chainRules...)
	logger.Info("rule chain ready", zap.Strings("rules", chain.Names()))

	// Journal
	var recorder journal.Recorder = journal.Discard{}
	if cfg.Journal.Enabled {
		switch cfg.Journal.Driver {
		case "postgres":
			dbStart := time.Now()
			pool, err := postgres.Connect(ctx, cfg.Database, logger)
			if err != nil {
				logger.Fatal("connecting to database", zap.Error(err))
			}
			defer pool.Close()
			recorder = postgres.NewJournalRepository(pool.DB())
			logger.Info("database connected",
				zap.String("host", cfg.Database.Host),
				zap.Duration("elapsed", time.Since(dbStart)),
			)
		default:
			recorder = journal.NewMemory()
		}
	}

	// Metrics
	lc := server.NewLifecycle(logger)
	metrics := observability.NopMetrics()
	if cfg.Metrics.Enabled {
		provider, err := observability.InitProvider("rogue", version)
		if err != nil {
			logger.Fatal("initializing metrics", zap.Error(err))
		}
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.Warn("shutting down metrics", zap.Error(err))
			}
		}()
		if metrics, err = observability.NewMetrics(provider); err != nil {
			logger.Fatal("creating instruments", zap.Error(err))
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", provider.Handler())
		lc.Add("metrics", server.NewHTTPService(cfg.Metrics.Addr, mux, logger))
	}

	// Tracing
	tracer := observability.Tracer(nil)
	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer("rogue", version, cfg.Tracing.SampleRatio, logger)
		if err != nil {
			logger.Fatal("initializing tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Warn("shutting down tracing", zap.Error(err))
			}
		}()
		tracer = observability.Tracer(tp)
	}

	book := knowledge.NewBook()
	resolver := turn.NewResolver(turn.ResolverConfig{
		World:        built.World,
		Chain:        chain,
		Dice:         roller,
		Knowledge:    book,
		Renderer:     render.NewText(os.Stdout, book, logger, render.Options{Clear: true}),
		Journal:      recorder,
		Metrics:      metrics,
		Logger:       logger,
		Tracer:       tracer,
		RunID:        runID,
		Pacing:       cfg.Engine.Pacing,
		WriteTimeout: cfg.Journal.WriteTimeout,
	})

	lc.Add("game", &server.FuncService{StartFn: func(ctx context.Context) error {
		in := input.NewChannel(ctx, input.Forward(ctx, input.NewReader(os.Stdin, os.Stdout, logger)))
		game := turn.NewGame(turn.GameConfig{
			World:    built.World,
			Resolver: resolver,
			Library:  library,
			Input:    in,
			Rand:     roller,
			Scripts:  scripts,
			Logger:   logger,
			MaxTurns: cfg.Engine.MaxTurns,
		})
		for _, id := range built.Actors {
			game.Add(id, 0)
		}
		_, err := game.Run(ctx)
		return err
	}})

	logger.Info("rogue ready",
		zap.Duration("startup", time.Since(start)),
	)
	if err := lc.Run(ctx); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
	if mem, ok := recorder.(*journal.Memory); ok {
		entries, _ := mem.Entries(ctx, resolver.RunID())
		logger.Info("journal kept in memory", zap.Int("entries", len(entries)))
	}
}
