// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package main is the entry point for the nichescout worker.
//
// The worker discovers trending video niches: feeders search the
// platform for candidate videos, gating filters them, a tiered
// scheduler re-samples their statistics, and the processing stages
// embed, cluster, score, and rank them into per-window niche listings.
//
// # Modes
//
// The root command runs supervised loops selected by --mode:
//
//	worker --mode all       # ingest + snapshot + process loops
//	worker --mode ingest    # feeders and gating only
//	worker --mode snapshot  # tiered stat re-sampling only
//	worker --mode process   # embed/cluster/score/rank only
//
// With --once the selected mode runs a single pass and prints a JSON
// summary to stdout. The subcommands embed, cluster, score, rank, and
// rss-expand run one stage once, for backfills and debugging.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in
// defaults. DATABASE_URL is always required; PLATFORM_API_KEY only for
// ingest and snapshot modes; EMBEDDING_API_KEY only for process and
// embed.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: loops finish their
// current pass, the ops listener drains, and the process exits 130.
// Clean completion exits 0; configuration or fatal errors exit 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/nichescout/nichescout/internal/api"
	"github.com/nichescout/nichescout/internal/cluster"
	"github.com/nichescout/nichescout/internal/config"
	"github.com/nichescout/nichescout/internal/database"
	"github.com/nichescout/nichescout/internal/embedding"
	"github.com/nichescout/nichescout/internal/ingest"
	"github.com/nichescout/nichescout/internal/logging"
	"github.com/nichescout/nichescout/internal/models"
	"github.com/nichescout/nichescout/internal/pipeline"
	"github.com/nichescout/nichescout/internal/platform"
	"github.com/nichescout/nichescout/internal/quota"
	"github.com/nichescout/nichescout/internal/ranking"
	"github.com/nichescout/nichescout/internal/scoring"
	"github.com/nichescout/nichescout/internal/snapshot"
	"github.com/nichescout/nichescout/internal/supervisor"
)

const (
	exitOK     = 0
	exitError  = 1
	exitSignal = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(exitSignal)
		}
		logging.Error().Err(err).Msg("worker failed")
		os.Exit(exitError)
	}
	os.Exit(exitOK)
}

func newRootCmd() *cobra.Command {
	var (
		mode       string
		windowFlag string
		once       bool
	)

	root := &cobra.Command{
		Use:           "worker",
		Short:         "Trending video niche discovery worker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := models.ParseWindow(windowFlag)
			if err != nil {
				return err
			}
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if once {
				return app.runOnce(cmd.Context(), mode, window)
			}
			return app.runLoops(cmd.Context(), mode, window)
		},
	}

	root.Flags().StringVar(&mode, "mode", "all", "pipeline mode: all, ingest, snapshot, or process")
	root.PersistentFlags().StringVar(&windowFlag, "window", string(models.DefaultWindow), "time window: 24h, 7d, 30d, or 90d")
	root.Flags().BoolVar(&once, "once", false, "run a single pass and print a JSON summary")

	root.AddCommand(
		newStageCmd("embed", "Embed titles of videos without embeddings", &windowFlag,
			func(ctx context.Context, app *app, w models.Window) (any, error) {
				svc, err := app.embeddingService()
				if err != nil {
					return nil, err
				}
				return svc.Run(ctx, w)
			}),
		newStageCmd("cluster", "Cluster embedded videos into niches", &windowFlag,
			func(ctx context.Context, app *app, w models.Window) (any, error) {
				return app.clusterService().Run(ctx, w)
			}),
		newStageCmd("score", "Compute per-video velocity and breakout scores", &windowFlag,
			func(ctx context.Context, app *app, w models.Window) (any, error) {
				return app.scoringService().Run(ctx, w)
			}),
		newStageCmd("rank", "Aggregate cluster metrics and opportunity scores", &windowFlag,
			func(ctx context.Context, app *app, w models.Window) (any, error) {
				return app.rankingService().Run(ctx, w)
			}),
		newStageCmd("rss-expand", "Pull free channel feeds for known channels", &windowFlag,
			func(ctx context.Context, app *app, w models.Window) (any, error) {
				ingestor, err := app.rssOnlyIngestor()
				if err != nil {
					return nil, err
				}
				return ingestor.Run(ctx, w)
			}),
	)
	return root
}

// newStageCmd builds a one-shot subcommand around a single stage.
func newStageCmd(name, short string, windowFlag *string,
	run func(ctx context.Context, app *app, w models.Window) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := models.ParseWindow(*windowFlag)
			if err != nil {
				return err
			}
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			summary, err := run(cmd.Context(), app, window)
			if err != nil {
				return err
			}
			return printSummary(summary)
		},
	}
}

// app holds the wired dependencies shared by all commands.
type app struct {
	cfg      *config.Config
	db       *database.DB
	governor *quota.Governor

	videos    *database.VideoRepository
	channels  *database.ChannelRepository
	snapshots *database.SnapshotRepository
	scores    *database.ScoreRepository
	clusters  *database.ClusterRepository
	emb       *database.EmbeddingRepository
	state     *database.StateRepository
}

// newApp loads configuration, connects the store, and ensures the
// schema. Credentialed clients are built lazily per mode.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.EnsureSchema(ctx, cfg.Embedding.Dim); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &app{
		cfg:       cfg,
		db:        db,
		governor:  quota.New(cfg.Platform.DailyQuota, cfg.Platform.Buffer),
		videos:    database.NewVideoRepository(db),
		channels:  database.NewChannelRepository(db),
		snapshots: database.NewSnapshotRepository(db),
		scores:    database.NewScoreRepository(db),
		clusters:  database.NewClusterRepository(db),
		emb:       database.NewEmbeddingRepository(db),
		state:     database.NewStateRepository(db),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// platformClient builds the metered platform client, failing fast when
// the credential is missing.
func (a *app) platformClient() (*platform.Client, error) {
	if err := a.cfg.RequirePlatformKey(); err != nil {
		return nil, err
	}
	return platform.NewClient(&a.cfg.Platform, a.governor), nil
}

func (a *app) ingestor() (*pipeline.Ingestor, error) {
	client, err := a.platformClient()
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	feeders := []ingest.Feeder{
		ingest.NewIntentSeedFeeder(client, a.state, a.cfg.Ingest.SeedsPerRun, a.cfg.Ingest.VideosPerSeed),
		ingest.NewExpansionFeeder(client, a.scores, a.state, rng),
		ingest.NewLongTailFeeder(client, a.videos, a.state, a.cfg.Ingest.LongtailQueries, rng),
		ingest.NewRSSExpansionFeeder(client, a.videos),
	}
	return pipeline.NewIngestor(feeders, a.videos, a.governor, a.cfg.Ingest.MaxPerChannel), nil
}

// rssOnlyIngestor runs only the free-feed feeder; it needs no platform
// credential since channel feeds are public.
func (a *app) rssOnlyIngestor() (*pipeline.Ingestor, error) {
	client := platform.NewClient(&a.cfg.Platform, a.governor)
	feeders := []ingest.Feeder{ingest.NewRSSExpansionFeeder(client, a.videos)}
	return pipeline.NewIngestor(feeders, a.videos, a.governor, a.cfg.Ingest.MaxPerChannel), nil
}

func (a *app) snapshotService() (*snapshot.Service, error) {
	client, err := a.platformClient()
	if err != nil {
		return nil, err
	}
	intervals := database.TierIntervals{
		AHours: a.cfg.Snapshot.TierAHours,
		BHours: a.cfg.Snapshot.TierBHours,
		CHours: a.cfg.Snapshot.TierCHours,
	}
	return snapshot.NewService(client, a.snapshots, a.channels, intervals, a.cfg.Snapshot.MaxPerRun), nil
}

func (a *app) embeddingService() (*embedding.Service, error) {
	if err := a.cfg.RequireEmbeddingKey(); err != nil {
		return nil, err
	}
	client := embedding.NewClient(&a.cfg.Embedding)
	return embedding.NewService(client, a.videos, a.emb, a.cfg.Embedding.BatchSize), nil
}

func (a *app) clusterService() *cluster.Service {
	return cluster.NewService(a.emb, a.clusters,
		a.cfg.Cluster.MinSize, a.cfg.Cluster.ReduceComponents, a.cfg.Cluster.ReduceNeighbors)
}

func (a *app) scoringService() *scoring.Service {
	return scoring.NewService(a.scores)
}

func (a *app) rankingService() *ranking.Service {
	return ranking.NewService(a.clusters)
}

func (a *app) processor() (*pipeline.Processor, error) {
	embedSvc, err := a.embeddingService()
	if err != nil {
		return nil, err
	}
	return pipeline.NewProcessor(embedSvc, a.clusterService(), a.scoringService(), a.rankingService()), nil
}

// runOnce executes one pass of the selected mode and prints a JSON
// summary to stdout.
func (a *app) runOnce(ctx context.Context, mode string, window models.Window) error {
	switch mode {
	case "ingest":
		ingestor, err := a.ingestor()
		if err != nil {
			return err
		}
		sum, err := ingestor.Run(ctx, window)
		if err != nil {
			return err
		}
		return printSummary(sum)

	case "snapshot":
		svc, err := a.snapshotService()
		if err != nil {
			return err
		}
		runner := pipeline.NewRunner(nil, svc, nil)
		sum, err := runner.RunSnapshot(ctx)
		if err != nil {
			return err
		}
		return printSummary(sum)

	case "process":
		proc, err := a.processor()
		if err != nil {
			return err
		}
		sum, err := proc.Run(ctx, window)
		if err != nil {
			return err
		}
		return printSummary(sum)

	case "all":
		runner, err := a.fullRunner()
		if err != nil {
			return err
		}
		sum, err := runner.RunAll(ctx, window)
		if printErr := printSummary(sum); printErr != nil {
			return printErr
		}
		return err

	default:
		return fmt.Errorf("unknown mode %q (want all, ingest, snapshot, or process)", mode)
	}
}

func (a *app) fullRunner() (*pipeline.Runner, error) {
	ingestor, err := a.ingestor()
	if err != nil {
		return nil, err
	}
	snapSvc, err := a.snapshotService()
	if err != nil {
		return nil, err
	}
	proc, err := a.processor()
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ingestor, snapSvc, proc), nil
}

// runLoops starts the supervised loops for the selected mode plus the
// ops listener, and blocks until the context is canceled.
func (a *app) runLoops(ctx context.Context, mode string, window models.Window) error {
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	switch mode {
	case "all", "ingest":
		ingestor, err := a.ingestor()
		if err != nil {
			return err
		}
		tree.AddPipelineService(supervisor.NewLoop("ingest-loop", a.cfg.Ingest.Interval,
			func(ctx context.Context) error {
				_, err := ingestor.Run(ctx, window)
				return err
			}))
	}
	switch mode {
	case "all", "snapshot":
		snapSvc, err := a.snapshotService()
		if err != nil {
			return err
		}
		runner := pipeline.NewRunner(nil, snapSvc, nil)
		tree.AddPipelineService(supervisor.NewLoop("snapshot-loop", a.cfg.Snapshot.Interval,
			func(ctx context.Context) error {
				_, err := runner.RunSnapshot(ctx)
				return err
			}))
	}
	switch mode {
	case "all", "process":
		proc, err := a.processor()
		if err != nil {
			return err
		}
		// Processing has no platform cost, so it shares the ingest cadence.
		tree.AddPipelineService(supervisor.NewLoop("process-loop", a.cfg.Ingest.Interval,
			func(ctx context.Context) error {
				_, err := proc.Run(ctx, window)
				return err
			}))
	}
	switch mode {
	case "all", "ingest", "snapshot", "process":
	default:
		return fmt.Errorf("unknown mode %q (want all, ingest, snapshot, or process)", mode)
	}

	ops := api.NewOps(a.db)
	tree.AddOpsService(supervisor.NewOpsService(
		ops.Server(a.cfg.Ops.ListenAddr, a.cfg.Ops.Timeout),
		supervisor.DefaultTreeConfig().ShutdownTimeout,
	))

	logging.Info().
		Str("mode", mode).
		Str("window", string(window)).
		Str("ops_addr", a.cfg.Ops.ListenAddr).
		Msg("starting worker loops")

	err := tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("service failed to stop within timeout")
	}
	return err
}

func printSummary(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
