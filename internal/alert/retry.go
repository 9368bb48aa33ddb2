package alert

import (
	"context"
	"time"

	"crypto-alert-bot/internal/types"

	log "github.com/sirupsen/logrus"
)

// RetryPolicy controls the end-of-pass deactivation sweep.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration // doubled after every failed attempt
}

// retryQueue collects fired alerts whose deactivation failed during a pass.
type retryQueue struct {
	items []types.Alert
}

func (q *retryQueue) push(a types.Alert) {
	q.items = append(q.items, a)
}

func (q *retryQueue) len() int {
	return len(q.items)
}

func (q *retryQueue) drain() []types.Alert {
	items := q.items
	q.items = nil
	return items
}

// sweep retries every queued deactivation. An alert that still fails stays
// active in the store and may fire again next pass.
func (e *Engine) sweep(ctx context.Context, q *retryQueue, res *PassResult) {
	if q.len() == 0 {
		return
	}
	log.Infof("Retrying %d failed deactivations", q.len())

	for _, a := range q.drain() {
		if e.deactivateWithRetry(ctx, a.ID) {
			res.Deactivated++
			continue
		}
		res.Stuck++
		e.metrics.DeactivationStuck.Inc()
		log.WithFields(log.Fields{"alert_id": a.ID, "symbol": a.Symbol}).
			Errorf("Alert fired but is still active after %d retries; it may notify again", e.retry.Attempts)
	}
}

func (e *Engine) deactivateWithRetry(ctx context.Context, alertID int64) bool {
	wait := e.retry.Backoff
	for attempt := 1; attempt <= e.retry.Attempts; attempt++ {
		if attempt > 1 && wait > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(wait):
			}
			wait *= 2
		}

		e.metrics.DeactivationRetries.Inc()
		err := e.store.Deactivate(ctx, alertID)
		if err == nil {
			return true
		}
		log.WithField("alert_id", alertID).Warnf("Deactivation retry %d failed: %v", attempt, err)
	}
	return false
}
