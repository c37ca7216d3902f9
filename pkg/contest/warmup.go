package contest

import (
	"context"

	"github.com/contestpulse/contest-pulse/pkg/logger"
)

// Warmup refetches every platform and overwrites the cached aggregate so the
// first client request after a cold start or a scheduler tick is served from
// storage. Returns the number of events fetched.
func (s *Service) Warmup(ctx context.Context) int {
	logger.Info("Warmup: refreshing contest cache")
	events := s.RefreshCache(ctx)
	logger.Info("Warmup finished. Events fetched: %d", len(events))
	return len(events)
}
