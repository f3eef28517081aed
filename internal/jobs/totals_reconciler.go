package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"deeddraw/internal/metrics"
	"deeddraw/internal/repository"
)

// TotalsReconciler periodically recomputes each user's totals from their
// verified transactions and reports users whose cached totals disagree. It
// never runs on the request path and never writes.
type TotalsReconciler struct {
	repo     *repository.Repository
	logger   *zap.Logger
	interval time.Duration
	stopChan chan struct{}
}

// NewTotalsReconciler creates a new reconciliation job
func NewTotalsReconciler(repo *repository.Repository, logger *zap.Logger, interval time.Duration) *TotalsReconciler {
	return &TotalsReconciler{
		repo:     repo,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the reconciliation loop
func (tr *TotalsReconciler) Start() {
	tr.logger.Info("starting totals reconciler", zap.Duration("interval", tr.interval))

	ticker := time.NewTicker(tr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), tr.interval)
			if _, err := tr.RunOnce(ctx); err != nil {
				tr.logger.Error("totals reconciliation failed", zap.Error(err))
			}
			cancel()
		case <-tr.stopChan:
			tr.logger.Info("stopping totals reconciler")
			return
		}
	}
}

// Stop stops the reconciliation loop
func (tr *TotalsReconciler) Stop() {
	close(tr.stopChan)
}

// RunOnce compares every participant's cached totals with the ledger and
// reports the ones that differ. Cached totals are only ever written by
// transaction approval, so drift is logged for an operator and never
// rewritten here. It returns how many users drifted.
func (tr *TotalsReconciler) RunOnce(ctx context.Context) (int, error) {
	totals, err := tr.repo.VerifiedTotalsByUser(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute totals: %w", err)
	}
	expected := make(map[uint]repository.UserTotals, len(totals))
	for _, t := range totals {
		expected[t.UserID] = t
	}

	users, err := tr.repo.ListParticipants(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list participants: %w", err)
	}

	drifted := 0
	for _, user := range users {
		want, ok := expected[user.ID]
		if !ok {
			want = repository.UserTotals{UserID: user.ID, Paid: decimal.Zero}
		}
		if int64(user.TotalPoints) == want.Points && user.TotalPaid.Equal(want.Paid) {
			continue
		}

		drifted++
		metrics.TotalsDrift.Inc()
		tr.logger.Warn("cached totals drifted from ledger",
			zap.Uint("user_id", user.ID),
			zap.Int("cached_points", user.TotalPoints),
			zap.Int64("ledger_points", want.Points),
			zap.String("cached_paid", user.TotalPaid.StringFixed(2)),
			zap.String("ledger_paid", want.Paid.StringFixed(2)),
		)
	}

	if drifted > 0 {
		tr.logger.Info("totals audit finished", zap.Int("drifted", drifted))
	}
	return drifted, nil
}
