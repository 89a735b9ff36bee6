package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/nu-its/authgate/internal/domain/repository"
	"github.com/nu-its/authgate/internal/email"
	dto "github.com/nu-its/authgate/internal/http/dto/auth"
	jwtx "github.com/nu-its/authgate/internal/jwt"
	"github.com/nu-its/authgate/internal/metrics"
	"github.com/nu-its/authgate/internal/observability/logger"
	"github.com/nu-its/authgate/internal/rate"
	"github.com/nu-its/authgate/internal/security/code"
	"github.com/nu-its/authgate/internal/validation"
)

// ChallengeConfig son las políticas del flujo, resueltas al construir el
// service (nada de lookups globales en runtime).
type ChallengeConfig struct {
	TTL         time.Duration // vida del challenge
	MaxAttempts int           // intentos fallidos antes del lockout
	LockWindow  time.Duration // duración del lockout
}

// ChallengeDeps contiene las dependencias del service.
type ChallengeDeps struct {
	Challenges repository.ChallengeRepository
	Users      repository.UserRepository
	Generator  code.Generator
	Limiter    rate.Limiter // por email normalizado, por hora
	Mail       *email.Queue
	Sessions   *jwtx.Issuer
	Config     ChallengeConfig
}

// Errores de negocio del flujo de request-code. La verificación nunca
// retorna error de negocio: su resultado es booleano.
var (
	ErrInvalidEmail = fmt.Errorf("invalid email")
	ErrUnknownUser  = fmt.Errorf("unknown or non-local user")
	ErrRateLimited  = fmt.Errorf("rate limited")
)

// RateLimitedError envuelve ErrRateLimited con el retry-after de la ventana.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string { return ErrRateLimited.Error() }
func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

type challengeService struct {
	deps ChallengeDeps
}

// NewChallengeService crea el service del flujo de login por código.
func NewChallengeService(deps ChallengeDeps) ChallengeService {
	return &challengeService{deps: deps}
}

func (s *challengeService) RequestCode(ctx context.Context, in dto.RequestCodeInput) (*dto.RequestCodeResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.challenge"),
		logger.Op("RequestCode"),
	)

	// Paso 0: normalización y validación
	emailAddr := validation.NormalizeEmail(in.Email)
	if !validation.ValidEmail(emailAddr) {
		return nil, ErrInvalidEmail
	}

	// Paso 1: el usuario debe existir, ser local y estar habilitado
	user, err := s.deps.Users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("unknown email for code request")
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.AuthType != repository.AuthLocal || user.Disabled() {
		log.Debug("user not eligible for code login", logger.UserID(user.ID))
		return nil, ErrUnknownUser
	}

	// Paso 2: rate limit por email por hora
	if s.deps.Limiter != nil {
		res, err := s.deps.Limiter.Allow(ctx, "code:"+emailAddr)
		if err != nil {
			// Limiter caído: dejar pasar, el lockout por challenge sigue
			log.Warn("rate limiter unavailable", logger.Err(err))
		} else if !res.Allowed {
			log.Info("code request rate limited")
			return nil, &RateLimitedError{RetryAfter: res.RetryAfter}
		}
	}

	// Paso 3: generar y hashear el código (nunca se persiste en claro)
	rawCode, err := s.deps.Generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	hash, err := code.Hash(rawCode)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	// Paso 4: persistir el challenge
	ch, err := s.deps.Challenges.Create(ctx, repository.CreateChallengeInput{
		Email:       emailAddr,
		CodeHash:    hash,
		RequestedIP: in.IP,
		TTL:         s.deps.Config.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}

	// Paso 5: encolar el correo (fire and forget; dedupe vía email_sent_at)
	s.deps.Mail.Enqueue(email.Job{
		ChallengeID: ch.ID,
		To:          emailAddr,
		Code:        rawCode,
		TTL:         s.deps.Config.TTL,
	})

	metrics.LoginCodesIssued.Inc()
	log.Info("login challenge created", logger.ChallengeID(ch.ID))

	return &dto.RequestCodeResult{
		ChallengeID: ch.ID,
		ExpiresAt:   ch.ExpiresAt,
	}, nil
}

func (s *challengeService) VerifyCode(ctx context.Context, in dto.VerifyCodeInput) (*dto.VerifyCodeResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.challenge"),
		logger.Op("VerifyCode"),
		logger.ChallengeID(in.ChallengeID),
	)
	now := time.Now().UTC()

	ch, err := s.deps.Challenges.Get(ctx, in.ChallengeID)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.LoginCodeVerifications.WithLabelValues("inactive").Inc()
			return &dto.VerifyCodeResult{Verified: false}, nil
		}
		return nil, fmt.Errorf("get challenge: %w", err)
	}

	// Paso 1: challenge inactivo (consumido, expirado o bloqueado): false
	// sin mutación
	if !ch.Active(now) {
		log.Debug("challenge inactive")
		metrics.LoginCodeVerifications.WithLabelValues("inactive").Inc()
		return &dto.VerifyCodeResult{Verified: false}, nil
	}

	// Paso 2: comparación del código contra el hash (bcrypt, timing-safe)
	if !code.Check(ch.CodeHash, in.Code) {
		// Paso 3: mismatch: increment condicional atómico; el lockout se
		// fija en el mismo statement al llegar al umbral
		updated, err := s.deps.Challenges.RegisterFailure(ctx, ch.ID,
			s.deps.Config.MaxAttempts, s.deps.Config.LockWindow)
		if err != nil {
			return nil, fmt.Errorf("register failure: %w", err)
		}
		if updated.LockedUntil != nil {
			log.Info("challenge locked",
				logger.Int("attempts", updated.Attempts),
			)
		}
		metrics.LoginCodeVerifications.WithLabelValues("mismatch").Inc()
		return &dto.VerifyCodeResult{Verified: false}, nil
	}

	// Paso 4: match: consumo condicional (one-time use). Si otro request
	// ganó la carrera, este pierde.
	consumed, err := s.deps.Challenges.Consume(ctx, ch.ID, in.IP, in.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("consume challenge: %w", err)
	}
	if !consumed {
		log.Debug("challenge consume lost race")
		metrics.LoginCodeVerifications.WithLabelValues("inactive").Inc()
		return &dto.VerifyCodeResult{Verified: false}, nil
	}

	// Paso 5: emitir session token. El usuario pudo quedar deshabilitado
	// (webhook de NetID) entre el request y el verify: re-chequear antes
	// de emitir.
	user, err := s.deps.Users.GetByEmail(ctx, ch.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup user after verify: %w", err)
	}
	if user.AuthType != repository.AuthLocal || user.Disabled() {
		log.Info("user no longer eligible at verify", logger.UserID(user.ID))
		metrics.LoginCodeVerifications.WithLabelValues("inactive").Inc()
		return &dto.VerifyCodeResult{Verified: false}, nil
	}
	token, exp, err := s.deps.Sessions.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	metrics.LoginCodeVerifications.WithLabelValues("ok").Inc()
	log.Info("login code verified", logger.UserID(user.ID))

	return &dto.VerifyCodeResult{
		Verified:     true,
		SessionToken: token,
		ExpiresAt:    exp,
		UserID:       user.ID,
	}, nil
}
