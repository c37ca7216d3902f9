package main

import (
	"context"
	"expvar"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/contestpulse/contest-pulse/pkg/cache"
	"github.com/contestpulse/contest-pulse/pkg/config"
	"github.com/contestpulse/contest-pulse/pkg/contest"
	"github.com/contestpulse/contest-pulse/pkg/logger"
	"github.com/contestpulse/contest-pulse/pkg/metrics"
	"github.com/contestpulse/contest-pulse/pkg/models"
	"github.com/contestpulse/contest-pulse/pkg/notify"
	"github.com/contestpulse/contest-pulse/pkg/platform"
	"github.com/contestpulse/contest-pulse/pkg/refresh"
	"github.com/contestpulse/contest-pulse/pkg/reminder"
	"github.com/contestpulse/contest-pulse/pkg/scheduler"
	"github.com/contestpulse/contest-pulse/pkg/util"
)

func main() {
	logger.Info("Starting Contest Pulse backend server...")

	// .env is optional; real env always wins.
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded environment from .env")
	}

	cfgPath := util.FirstNonEmpty(os.Getenv("CP_CONFIG"), "config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("Failed to load config %s: %v", cfgPath, err)
		os.Exit(1)
	}
	logger.SetLogLevelFromString(cfg.LogLevel)

	metrics.Init()

	store, err := cache.NewBoltStore(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	metrics.SetCacheStatsProvider(func() map[string]int {
		return cache.GetStatistics(store, cfg.FreshnessWindow())
	})

	notifier := notify.NewLocalNotifier(nil)
	reminders := reminder.NewManager(store, notifier)
	contests := contest.NewService(store, nil, cfg.FreshnessWindow())

	schedCfg := scheduler.FromEnv()
	if schedCfg.Enabled {
		sched, err := scheduler.New(schedCfg, func() int {
			return contests.Warmup(context.Background())
		})
		if err != nil {
			logger.Error("Failed to create scheduler: %v", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	if interval := cfg.RefreshInterval(); interval > 0 {
		stop := refresh.Start(
			func() []models.Event {
				return contests.RefreshCache(context.Background())
			},
			func(events []models.Event) {
				logger.Info("Auto-refresh delivered %d events", len(events))
			},
			interval,
		)
		defer stop()
	}

	r := mux.NewRouter()
	r.HandleFunc("/contests", contests.GetContests).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/platforms", platform.GetPlatformsHandler).Methods(http.MethodGet)
	r.HandleFunc("/reminders", reminders.ListHandler).Methods(http.MethodGet)
	r.HandleFunc("/reminders", reminders.ScheduleHandler).Methods(http.MethodPost)
	r.HandleFunc("/reminders/{contestId}", reminders.CancelHandler).Methods(http.MethodDelete)
	r.HandleFunc(metrics.StatsPath, metrics.StatsHandler).Methods(http.MethodGet)
	r.Handle(metrics.DebugVarsPath, expvar.Handler()).Methods(http.MethodGet)

	logger.Info("Starting HTTP server on %s...", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, metrics.Instrument(r)); err != nil {
		logger.Error("Server failed: %v", err)
		os.Exit(1)
	}
}
