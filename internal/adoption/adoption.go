// Package adoption decides adoption requests: it asks the classifier to
// judge the purpose statement, persists accepted requests and schedules the
// rejection email for the others.
package adoption

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/internal/ai"
	"github.com/garnizeh/pawfect/internal/apperr"
	"github.com/garnizeh/pawfect/internal/mail"
	"github.com/garnizeh/pawfect/internal/metrics"
	"github.com/garnizeh/pawfect/pkg/models"
	"github.com/garnizeh/pawfect/pkg/repository"
)

// Client-facing messages.
const (
	MsgMissingFields    = "Missing required fields"
	MsgClassifierFailed = "Adoption validation process failed"
	MsgParseFailed      = "AI validation failed"
	MsgPetLookupFailed  = "Failed to fetch pet details"
	MsgUserLookupFailed = "Failed to fetch user details"
	MsgInsertFailed     = "Failed to submit adoption request"
	MsgRejected         = "Invalid adoption purpose. Request rejected."
	MsgSubmitted        = "Adoption request submitted successfully"
)

// Job types for deferred adoption emails.
const (
	JobEmailRejected = "email.adoption_rejected"
	JobEmailAccepted = "email.adoption_accepted"
)

// Evaluator judges a purpose statement. *ai.Validator implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, purpose string) (ai.Result, error)
}

// Enqueuer schedules deferred jobs. *jobs.WorkerPool implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, typ string, payload any, delay time.Duration, maxAttempts int) (int64, error)
}

type Options struct {
	// RejectDelay postpones the rejection email.
	RejectDelay time.Duration
	// EmailOnAccept also schedules an approval email for accepted requests.
	EmailOnAccept bool
}

type Service struct {
	pets      repository.PetRepo
	users     repository.UserRepo
	adoptions repository.AdoptionRepo
	evaluator Evaluator
	jobs      Enqueuer
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(pets repository.PetRepo, users repository.UserRepo, adoptions repository.AdoptionRepo, ev Evaluator, jobs Enqueuer, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		pets:      pets,
		users:     users,
		adoptions: adoptions,
		evaluator: ev,
		jobs:      jobs,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

type Request struct {
	PetID   int64
	Purpose string
	UserID  int64
}

// Outcome is the result of a submission. AdoptionID is set only when
// Accepted. PetName is nil when the pet does not exist.
type Outcome struct {
	Accepted   bool
	AdoptionID int64
	PetName    *string
}

// Submit runs the decision flow for one request. The classifier is called
// exactly once. An adoption row is written only for a VALID decision; any
// other decision schedules a rejection email and persists nothing.
func (s *Service) Submit(ctx context.Context, req Request) (*Outcome, error) {
	if req.PetID <= 0 || strings.TrimSpace(req.Purpose) == "" {
		return nil, apperr.New(apperr.KindValidation, MsgMissingFields)
	}
	log := s.logger.With(zap.Int64("pet_id", req.PetID), zap.Int64("user_id", req.UserID))

	start := time.Now()
	res, err := s.evaluator.Evaluate(ctx, req.Purpose)
	if err != nil {
		metrics.RecordClassification(metrics.OutcomeError, time.Since(start))
		log.Error("purpose evaluation failed", zap.Error(err))
		if apperr.Is(err, apperr.KindParse) {
			return nil, apperr.Wrap(apperr.KindParse, MsgParseFailed, err)
		}
		return nil, apperr.Wrap(apperr.KindClassifier, MsgClassifierFailed, err)
	}

	pet, err := s.pets.GetPet(ctx, req.PetID)
	if err != nil {
		log.Error("get pet details", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindStorage, MsgPetLookupFailed, err)
	}
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		log.Error("get user details", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindStorage, MsgUserLookupFailed, err)
	}

	var petName, lastName *string
	var email string
	if pet != nil {
		petName = &pet.Name
	}
	if user != nil {
		lastName = &user.LastName
		email = user.Email
	}

	if !res.Accepted() {
		metrics.RecordClassification(metrics.OutcomeInvalid, time.Since(start))
		log.Info("adoption purpose rejected", zap.String("decision", res.Decision))
		s.schedule(ctx, JobEmailRejected, mail.AdoptionEmail{To: email, UserName: lastName, PetName: petName, Type: mail.TypeRejected}, s.opts.RejectDelay)
		return &Outcome{PetName: petName}, nil
	}
	metrics.RecordClassification(metrics.OutcomeValid, time.Since(start))

	a := &models.Adoption{
		PetID:             req.PetID,
		UserID:            req.UserID,
		DateRequested:     s.now().UTC().UnixMilli(),
		PurposeOfAdoption: req.Purpose,
		Status:            models.AdoptionPending,
	}
	id, err := s.adoptions.CreateAdoption(ctx, a)
	if err != nil {
		log.Error("insert adoption request", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindStorage, MsgInsertFailed, err)
	}
	log.Info("adoption request submitted", zap.Int64("adoption_id", id))

	if s.opts.EmailOnAccept {
		s.schedule(ctx, JobEmailAccepted, mail.AdoptionEmail{To: email, UserName: lastName, PetName: petName, Type: mail.TypeApproved}, 0)
	}
	return &Outcome{Accepted: true, AdoptionID: id, PetName: petName}, nil
}

// schedule enqueues a single-attempt email job. Failures are logged only.
func (s *Service) schedule(ctx context.Context, typ string, e mail.AdoptionEmail, delay time.Duration) {
	if s.jobs == nil {
		return
	}
	// the outbox write must not be lost to a client hanging up mid-request
	ctx = context.WithoutCancel(ctx)
	if _, err := s.jobs.Enqueue(ctx, typ, e, delay, 1); err != nil {
		s.logger.Error("schedule adoption email", zap.String("job_type", typ), zap.Error(err))
	}
}
