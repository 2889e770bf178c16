package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"twitchdrops-backend/lib/configutil"
	"twitchdrops-backend/lib/kvstore"
	"twitchdrops-backend/lib/platforms/twitch"
	"twitchdrops-backend/lib/restyutil"
	"twitchdrops-backend/lib/serviceutil"
	"twitchdrops-backend/lib/sqliteutil"
	"twitchdrops-backend/lib/telemetry"
	"twitchdrops-backend/services/tracker"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	fetchNow := flag.Bool("fetch", false, "Trigger a full fetch immediately on run.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(*verbose)
	err := telemetry.SetupFromEnv(ctx, "drops-server")
	if err != nil {
		slog.Warn("telemetry disabled", "err", err)
	}
	defer telemetry.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.Database == "" {
		cfg.Database = "drops.db"
	}

	db, err := sqliteutil.OpenDB(kvstore.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	defer db.Close()

	if cfg.Debug.RestyDumpDir != "" {
		twitch.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(cfg.Debug.RestyDumpDir))
	}
	twitchClient, err := twitch.NewClient()
	if err != nil {
		serviceutil.Fatal("failed to init twitch client", err)
	}

	service := tracker.NewService(tracker.ServiceOptions{
		Store:  kvstore.NewStore(db),
		Twitch: twitchClient,
		Tokens: envTokenSource{fallback: cfg.Auth.Token},
	})

	if *fetchNow {
		refresh(ctx, service)
	}
	if cfg.RefreshMinutes > 0 {
		stop, err := startRefreshSchedule(ctx, service, cfg.RefreshMinutes)
		if err != nil {
			serviceutil.Fatal("failed to start refresh schedule", err)
		}
		defer stop()
	}

	go serviceutil.StartHttpServer(cfg.Port, NewRouter(service))
	<-ctx.Done()
}

func refresh(ctx context.Context, service *tracker.Service) {
	snapshot, err := service.FetchAll(ctx)
	if err != nil {
		slog.Error("refresh failed", "err", err)
		return
	}
	slog.Info("refreshed drop state",
		"campaigns", len(snapshot.Campaigns),
		"in_progress", len(snapshot.Inventory.InProgress),
		"claimable", len(snapshot.Inventory.Claimable),
	)
}

func startRefreshSchedule(ctx context.Context, service *tracker.Service, minutes int) (func(), error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(time.Duration(minutes)*time.Minute),
		gocron.NewTask(func() {
			refresh(ctx, service)
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	slog.Info("refresh schedule started", "minutes", minutes)
	return func() {
		err := sched.Shutdown()
		if err != nil {
			slog.Warn("failed to stop scheduler", "err", err)
		}
	}, nil
}
