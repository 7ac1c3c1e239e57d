package application

import (
	"context"
	"time"

	"econsim/config"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Job is one iteration of a background worker
type Job func(ctx context.Context) error

// IntervalWorker runs a job immediately and then on every interval tick.
// A failed iteration is logged and the loop continues.
type IntervalWorker struct {
	name     string
	interval time.Duration
	job      Job
}

// NewIntervalWorker creates a worker for job
func NewIntervalWorker(name string, interval time.Duration, job Job) *IntervalWorker {
	return &IntervalWorker{name: name, interval: interval, job: job}
}

// Name returns the worker's name
func (w *IntervalWorker) Name() string {
	return w.name
}

// RunOnce executes a single iteration and logs its failure
func (w *IntervalWorker) RunOnce(ctx context.Context) {
	runID := uuid.New()
	started := time.Now()

	logger := log.WithFields(log.Fields{
		"worker": w.name,
		"run_id": runID.String(),
	})
	logger.Debug("Worker iteration started")

	if err := w.job(ctx); err != nil {
		logger.WithError(err).Errorf("%s iteration failed", w.name)
		return
	}
	logger.WithField("elapsed", time.Since(started)).Debug("Worker iteration finished")
}

// Start begins the worker loop and returns a function that stops it
func (w *IntervalWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Infof("%s worker started, interval %v", w.name, w.interval)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				log.Infof("%s worker shutting down (context cancelled)...", w.name)
				return
			case <-stopChan:
				log.Infof("%s worker shutting down (stop requested)...", w.name)
				return
			case <-ticker.C:
				w.RunOnce(ctx)
			}
		}
	}()

	// Return cleanup function
	return func() {
		close(stopChan)
	}
}

// NewMarketTickWorker drifts every market on the configured interval
func NewMarketTickWorker(economy *Economy) *IntervalWorker {
	return NewIntervalWorker("market tick", config.Get().MarketTickInterval.Duration, func(ctx context.Context) error {
		results, err := economy.TickMarkets(ctx)
		if err != nil {
			return err
		}

		shocks := 0
		for _, r := range results {
			if r.Shock != nil {
				shocks++
				log.WithFields(log.Fields{
					"symbol": r.Symbol,
					"kind":   r.Shock.Kind,
					"pct":    r.Shock.Pct,
				}).Info("Market shock applied")
			}
		}
		log.WithFields(log.Fields{
			"markets": len(results),
			"shocks":  shocks,
		}).Debug("Market tick completed")
		return nil
	})
}

// NewTaxWorker checks on the configured interval whether today's tax is due
func NewTaxWorker(economy *Economy) *IntervalWorker {
	return NewIntervalWorker("tax", config.Get().TaxCheckInterval.Duration, func(ctx context.Context) error {
		result, ran, err := economy.RunTaxIfDue(ctx)
		if err != nil {
			return err
		}
		if !ran {
			return nil
		}

		log.WithFields(log.Fields{
			"date":           result.DateKey,
			"accounts_taxed": result.AccountsTaxed,
			"total_tax":      result.TotalTax,
			"pool_after":     result.PoolAfter,
		}).Info("Daily tax collected")
		return nil
	})
}

// NewParoleWorker collects parole payments on the configured interval
func NewParoleWorker(economy *Economy) *IntervalWorker {
	return NewIntervalWorker("parole", config.Get().ParoleCheckInterval.Duration, func(ctx context.Context) error {
		result, err := economy.ParoleTick(ctx)
		if err != nil {
			return err
		}
		if result.Processed == 0 {
			return nil
		}

		log.WithFields(log.Fields{
			"processed":  result.Processed,
			"expired":    result.Expired,
			"total_paid": result.TotalPaid,
			"pool_after": result.PoolAfter,
		}).Info("Parole payments collected")
		return nil
	})
}

// StartWorkers starts every worker and returns a function that stops all of them
func StartWorkers(ctx context.Context, workers ...*IntervalWorker) func() {
	stops := make([]func(), 0, len(workers))
	for _, w := range workers {
		stops = append(stops, w.Start(ctx))
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}
