package scheduler

import (
	"os"

	"github.com/robfig/cron/v3"

	"github.com/contestpulse/contest-pulse/pkg/logger"
	"github.com/contestpulse/contest-pulse/pkg/util"
)

type Config struct {
	Enabled  bool
	CronSpec string // e.g. "*/15 * * * *" (server local time)
}

// Scheduler runs the cache warmup job on a cron spec.
type Scheduler struct {
	c      *cron.Cron
	config Config
	warmup func() int
}

func FromEnv() Config {
	return Config{
		Enabled:  os.Getenv("CP_SCHEDULER_ENABLED") == "true" || os.Getenv("CP_SCHEDULER_ENABLED") == "1",
		CronSpec: util.FirstNonEmpty(os.Getenv("CP_SCHEDULER_CRON"), "*/15 * * * *"),
	}
}

// New builds a scheduler invoking warmup on every tick.
func New(cfg Config, warmup func() int) (*Scheduler, error) {
	s := &Scheduler{
		c:      cron.New(), // standard 5-field spec, runs in server local time
		config: cfg,
		warmup: warmup,
	}
	_, err := s.c.AddFunc(cfg.CronSpec, func() {
		logger.Info("Scheduler tick: running warmup job")
		total := s.warmup()
		logger.Info("Scheduler warmup done, events fetched: %d", total)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	logger.Info("Starting scheduler (cron=%s)", s.config.CronSpec)
	s.c.Start()
}

func (s *Scheduler) Stop() {
	s.c.Stop()
}

// GetConfig returns the current scheduler configuration
func (s *Scheduler) GetConfig() Config {
	return s.config
}
