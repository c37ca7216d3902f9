package refresh

import (
	"sync/atomic"
	"time"

	"github.com/contestpulse/contest-pulse/pkg/logger"
	"github.com/contestpulse/contest-pulse/pkg/models"
)

// DefaultInterval matches the cache freshness window.
const DefaultInterval = 15 * time.Minute

// Start invokes fetch once immediately and then on a fixed period, handing
// each result to callback. The returned stop function cancels future ticks
// only; an in-flight fetch runs to completion but its callback is still
// delivered. An in-flight guard skips a tick whose predecessor has not
// finished, so slow fetches never pile up.
func Start(fetch func() []models.Event, callback func([]models.Event), interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	done := make(chan struct{})
	var inFlight atomic.Bool

	run := func() {
		if !inFlight.CompareAndSwap(false, true) {
			logger.Warn("Auto-refresh tick skipped: previous fetch still running")
			return
		}
		defer inFlight.Store(false)
		callback(fetch())
	}

	go run()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				go run()
			}
		}
	}()

	var stopped atomic.Bool
	return func() {
		if stopped.CompareAndSwap(false, true) {
			close(done)
			logger.Info("Auto-refresh stopped")
		}
	}
}
