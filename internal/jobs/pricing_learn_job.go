package jobs

import (
	"context"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"go.uber.org/zap"
)

// PricingLearnJobName is the scheduler name of the pricing sweep
const PricingLearnJobName = "pricing_learn"

const defaultLearnBatch = 100

// PricingLearner learns prices from issued quotes not yet learned from
type PricingLearner interface {
	LearnPending(ctx context.Context, limit int) (int, error)
}

// PricingLearnJob catches up on quotes whose prices were not learned when
// they were issued, e.g. because the process stopped in between
type PricingLearnJob struct {
	learner PricingLearner
	batch   int
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewPricingLearnJob(learner PricingLearner, batch int, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *PricingLearnJob {
	if batch <= 0 {
		batch = defaultLearnBatch
	}
	return &PricingLearnJob{
		learner: learner,
		batch:   batch,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

// Run performs one sweep
func (j *PricingLearnJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	learned, err := j.learner.LearnPending(ctx, j.batch)
	elapsed := time.Since(start)
	j.metrics.ObserveJob(PricingLearnJobName, elapsed, err)

	if err != nil {
		j.logger.Error("pricing learn sweep failed",
			zap.Int("learned", learned),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return
	}
	if learned > 0 {
		j.logger.Info("pricing learn sweep completed",
			zap.Int("learned", learned),
			zap.Duration("duration", elapsed))
	}
}

// RegisterPricingLearnJob schedules the sweep on cronExpr
func RegisterPricingLearnJob(s *Scheduler, job *PricingLearnJob, cronExpr string) error {
	return s.AddJob(PricingLearnJobName, cronExpr, job.Run)
}
