package alert

import (
	"context"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"
)

// Run drives passes until ctx is cancelled. The next pass starts one poll
// interval after the previous one has finished, so passes never overlap.
func (e *Engine) Run(ctx context.Context) {
	log.Infof("🚀 Alert service started, polling every %s", e.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Alert service stopped")
			return
		case <-timer.C:
		}

		e.safePass(ctx)
		timer.Reset(e.interval)
	}
}

func (e *Engine) safePass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.PassFailures.Inc()
			log.Errorf("🔥 Panic recovered in alert pass: %v\n%s", r, debug.Stack())
		}
	}()

	if _, err := e.RunPass(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Errorf("❌ Alert pass aborted: %v", err)
	}
}
