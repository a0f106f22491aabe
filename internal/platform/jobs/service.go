package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"hospitalpay/internal/platform/metrics"
)

const JobSubscriptionExpiry = "subscription_expiry"

// Expirer is the subscription sweep the scheduler drives.
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

type Service struct {
	DB      *pgxpool.Pool
	Logger  *zap.Logger
	Metrics *metrics.Collector
	queue   chan job
	wg      sync.WaitGroup
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

// New builds the job runner. db may be nil, in which case runs are only logged.
func New(db *pgxpool.Pool, logger *zap.Logger, collector *metrics.Collector) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		DB:      db,
		Logger:  logger.Named("jobs"),
		Metrics: collector,
		queue:   make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context, expirer Expirer, sweepInterval time.Duration) {
	s.wg.Add(1)
	go s.worker(ctx)
	if expirer != nil && sweepInterval > 0 {
		s.wg.Add(1)
		go s.scheduleExpiry(ctx, expirer, sweepInterval)
	}
}

// Wait blocks until the worker and schedulers have returned after ctx is cancelled.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		s.Logger.Warn("job queue full", zap.String("job_type", jobType))
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.Logger.Warn("job run failed", zap.String("job_type", j.Type), zap.Error(err))
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := s.startRun(ctx, j.Type)
	started := time.Now()

	details, err := j.Run(ctx)
	s.Metrics.Operation("jobs", j.Type, err)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	s.Logger.Info("job finished",
		zap.String("job_type", j.Type),
		zap.String("status", status),
		zap.Duration("duration", time.Since(started)),
		zap.Any("details", details))
	s.finishRun(ctx, runID, status, details)
	return details, err
}

func (s *Service) startRun(ctx context.Context, jobType string) string {
	if s.DB == nil {
		return ""
	}
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, jobType, "running").Scan(&runID); err != nil {
		s.Logger.Warn("job run insert failed", zap.Error(err))
	}
	return runID
}

func (s *Service) finishRun(ctx context.Context, runID, status string, details any) {
	if s.DB == nil || runID == "" {
		return
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		s.Logger.Warn("job details marshal failed", zap.Error(err))
		detailsJSON = []byte("{}")
	}
	if _, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); err != nil {
		s.Logger.Warn("job run update failed", zap.Error(err))
	}
}

func (s *Service) scheduleExpiry(ctx context.Context, expirer Expirer, interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobSubscriptionExpiry, ExpiryJob(expirer))
		}
	}
}

// ExpiryJob wraps the sweep so its count lands in the job run details.
func ExpiryJob(expirer Expirer) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		expired, err := expirer.ExpireDue(ctx)
		return map[string]any{"expired": expired}, err
	}
}
