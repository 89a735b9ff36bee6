package email

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nu-its/authgate/internal/metrics"
	"github.com/nu-its/authgate/internal/observability/logger"
)

// Job es un correo de código de login pendiente de envío.
type Job struct {
	ChallengeID string
	To          string
	Code        string
	TTL         time.Duration
}

// Marker fija email_sent_at de forma atómica; retorna true solo para el
// primer caller. Lo satisface repository.ChallengeRepository.
type Marker interface {
	MarkEmailSent(ctx context.Context, id string) (bool, error)
}

// Queue despacha correos en background (fire and forget). El handler del
// request encola y sigue; un worker único drena el canal.
type Queue struct {
	jobs   chan Job
	sender Sender
	marker Marker
}

// NewQueue crea la cola con el buffer dado.
func NewQueue(sender Sender, marker Marker, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	return &Queue{
		jobs:   make(chan Job, buffer),
		sender: sender,
		marker: marker,
	}
}

// Enqueue encola sin bloquear. Si el buffer está lleno el job se descarta y
// se loguea: el usuario puede pedir otro código.
func (q *Queue) Enqueue(job Job) {
	select {
	case q.jobs <- job:
	default:
		logger.Named("email.queue").Warn("mail queue full, dropping job",
			logger.ChallengeID(job.ChallengeID),
		)
		metrics.EmailsFailed.Inc()
	}
}

// Run procesa jobs hasta que el contexto se cancele. Pensado para correr
// bajo errgroup en main.
func (q *Queue) Run(ctx context.Context) error {
	log := logger.Named("email.queue")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-q.jobs:
			q.process(ctx, log, job)
		}
	}
}

func (q *Queue) process(ctx context.Context, log *zap.Logger, job Job) {
	// Dedupe: solo el primer marcador de email_sent_at envía
	first, err := q.marker.MarkEmailSent(ctx, job.ChallengeID)
	if err != nil {
		log.Error("mark email sent failed", logger.ChallengeID(job.ChallengeID), logger.Err(err))
		metrics.EmailsFailed.Inc()
		return
	}
	if !first {
		log.Debug("email already sent, skipping", logger.ChallengeID(job.ChallengeID))
		return
	}

	subject, htmlBody, textBody, err := RenderLoginCode(job.Code, job.TTL)
	if err != nil {
		log.Error("render login code failed", logger.Err(err))
		metrics.EmailsFailed.Inc()
		return
	}

	if err := q.sender.Send(job.To, subject, htmlBody, textBody); err != nil {
		log.Error("send login code failed", logger.ChallengeID(job.ChallengeID), logger.Err(err))
		metrics.EmailsFailed.Inc()
		return
	}

	metrics.EmailsSent.Inc()
	log.Info("login code email sent", logger.ChallengeID(job.ChallengeID))
}
