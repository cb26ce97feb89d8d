package transaction

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const expiryBatchSize = 100

// Expirer is the part of the service the worker drives.
type Expirer interface {
	ExpireOverdue(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// Worker rejects transactions whose payment proof was not uploaded in time
type Worker struct {
	service  Expirer
	proofTTL time.Duration
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup
}

// NewWorker creates the payment proof expiry worker.
// A non-positive proofTTL disables expiry.
func NewWorker(service Expirer, proofTTL, interval time.Duration) *Worker {
	if proofTTL < 0 {
		proofTTL = 0
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Worker{
		service:  service,
		proofTTL: proofTTL,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Enabled reports whether overdue transactions are expired at all
func (w *Worker) Enabled() bool {
	return w.proofTTL > 0
}

// Start begins the background worker. It is a no-op when disabled.
func (w *Worker) Start() {
	if !w.Enabled() {
		log.Info().Msg("Payment proof expiry disabled")
		return
	}
	log.Info().Dur("proof_ttl", w.proofTTL).Dur("interval", w.interval).Msg("Starting payment proof expiry worker...")
	w.done.Add(1)
	go w.loop()
}

// Stop stops the worker and waits for the running pass to finish
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		if w.Enabled() {
			log.Info().Msg("Stopping payment proof expiry worker...")
		}
		close(w.stopCh)
	})
	w.done.Wait()
}

func (w *Worker) loop() {
	defer w.done.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	w.RunOnce()

	for {
		select {
		case <-ticker.C:
			w.RunOnce()
		case <-w.stopCh:
			return
		}
	}
}

// RunOnce expires every overdue transaction, in batches.
func (w *Worker) RunOnce() int {
	if !w.Enabled() {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := w.now().Add(-w.proofTTL)
	total := 0
	for {
		n, err := w.service.ExpireOverdue(ctx, cutoff, expiryBatchSize)
		if err != nil {
			log.Error().Err(err).Msg("Failed to expire overdue transactions")
			break
		}
		total += n
		if n < expiryBatchSize {
			break
		}
	}

	if total > 0 {
		log.Info().Int("count", total).Msg("Expired transactions without payment proof")
	}
	return total
}
