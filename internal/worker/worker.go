// Package worker runs the background processor that drains the
// moderation audit queue into PostgreSQL.
package worker

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/raisemyhand/backend/pkg/queue"
)

// AuditRepository persists moderation audit records.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates an audit repository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Insert writes one audit row. Question rows may already be deleted by
// the time the job runs, so question_id is not a foreign key.
func (r *AuditRepository) Insert(ctx context.Context, p queue.ModerationAuditPayload) error {
	const query = `INSERT INTO moderation_audit (id, question_id, session_id, action, status, decided_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, p.QuestionID, p.SessionID, p.Action, p.Status, p.DecidedAt)
	return err
}

// Processor consumes moderation audit jobs.
type Processor struct {
	queue  *queue.Queue
	repo   *AuditRepository
	logger *zap.Logger
}

// NewProcessor creates a worker processor.
func NewProcessor(q *queue.Queue, repo *AuditRepository, logger *zap.Logger) *Processor {
	return &Processor{queue: q, repo: repo, logger: logger}
}

// Run processes jobs until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("moderation audit worker started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("moderation audit worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}
		p.process(ctx, job)
	}
}

func (p *Processor) process(ctx context.Context, job *queue.Job) {
	switch job.Type {
	case queue.JobTypeModerationAudit:
		var payload queue.ModerationAuditPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			p.logger.Warn("dropping malformed audit job",
				zap.String("job_id", job.ID), zap.Error(err))
			return
		}
		if err := p.repo.Insert(ctx, payload); err != nil {
			p.logger.Error("audit insert failed",
				zap.String("job_id", job.ID), zap.Error(err))
			if rerr := p.queue.Retry(ctx, job); rerr != nil {
				p.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(rerr))
			}
			return
		}
		p.logger.Debug("audit recorded",
			zap.String("question_id", payload.QuestionID.String()),
			zap.String("action", payload.Action),
		)
	default:
		p.logger.Warn("unknown job type", zap.String("type", string(job.Type)), zap.String("job_id", job.ID))
	}
}
