package adoption

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/internal/jobs"
	"github.com/garnizeh/pawfect/internal/mail"
	"github.com/garnizeh/pawfect/internal/metrics"
)

// Mailer sends adoption outcome emails. *mail.Notifier implements it.
type Mailer interface {
	AdoptionEmail(ctx context.Context, e mail.AdoptionEmail) (string, error)
}

// JobRegistrar is the part of the worker pool that accepts handlers.
type JobRegistrar interface {
	Handle(typ string, h jobs.Handler)
}

// RegisterJobs installs the email job handler for both outcome types.
func RegisterJobs(r JobRegistrar, m Mailer, logger *zap.Logger) {
	h := EmailHandler(m, logger)
	r.Handle(JobEmailRejected, h)
	r.Handle(JobEmailAccepted, h)
}

// EmailHandler delivers one adoption email job. A job without a recipient
// is skipped; a delivery failure is returned so the job is dead-lettered.
func EmailHandler(m Mailer, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, j *jobs.Job) error {
		var e mail.AdoptionEmail
		if err := j.Decode(&e); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		log := logger.With(zap.Int64("job_id", j.ID), zap.String("type", e.Type))

		if e.To == "" {
			log.Warn("adoption email skipped: recipient unknown")
			return nil
		}

		id, err := m.AdoptionEmail(ctx, e)
		metrics.RecordNotification(e.Type, err)
		if err != nil {
			log.Error("error sending adoption email", zap.String("to", e.To), zap.Error(err))
			return err
		}
		log.Info("adoption email sent", zap.String("to", e.To), zap.String("message_id", id))
		return nil
	}
}
