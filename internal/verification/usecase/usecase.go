package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/cardnote/internal/pkg/clock"
	"github.com/shandysiswandi/cardnote/internal/pkg/goerror"
	"github.com/shandysiswandi/cardnote/internal/pkg/instrument"
	"github.com/shandysiswandi/cardnote/internal/pkg/jwt"
	"github.com/shandysiswandi/cardnote/internal/pkg/validator"
	"github.com/shandysiswandi/cardnote/internal/verification/engine"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

type VerifiedEvent struct {
	Email      string
	Purpose    entity.Purpose
	VerifiedAt time.Time
}

type repoMessaging interface {
	PublishVerified(ctx context.Context, msg VerifiedEvent) error
}

type repoEmail interface {
	Send(ctx context.Context, identifier, code string, purpose entity.Purpose, expiresAt time.Time) error
}

type verifier interface {
	RequestCode(ctx context.Context, identifier string, purpose entity.Purpose) (*engine.Issued, error)
	Verify(ctx context.Context, identifier, code string) (*engine.Verified, error)
	Resend(ctx context.Context, identifier string, purpose entity.Purpose) (*engine.Issued, error)
	Status(ctx context.Context, identifier string) (entity.Countdown, error)
	Discard(ctx context.Context, identifier string) error
}

type Usecase struct {
	engine        verifier
	repoEmail     repoEmail
	repoMessaging repoMessaging
	validator     validator.Validator
	jwt           jwt.JWT
	clock         clock.Clocker
	ins           instrument.Instrumentation
	outcomes      metric.Int64Counter
}

type Dependency struct {
	Engine        verifier
	RepoEmail     repoEmail
	RepoMessaging repoMessaging
	Validator     validator.Validator
	// JWT is nil when tickets are disabled.
	JWT        jwt.JWT
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	outcomes, err := dep.Instrument.Meter("verification.usecase").Int64Counter(
		"verification.outcomes",
		metric.WithDescription("Verification operations by result"),
	)
	if err != nil {
		slog.Warn("failed to create verification outcome counter", "error", err)
		outcomes = noop.Int64Counter{}
	}

	return &Usecase{
		engine:        dep.Engine,
		repoEmail:     dep.RepoEmail,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		jwt:           dep.JWT,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		outcomes:      outcomes,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func (s *Usecase) record(ctx context.Context, operation, result string) {
	s.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
}

// IssueOutput is what the requesting client may see of a new code.
type IssueOutput struct {
	ExpiresAt         time.Time
	ResendAvailableAt time.Time
}

// dispatch sends an issued code. A delivery failure rolls the issuance back so
// the user is not stuck behind a cooldown for a code that never arrived.
func (s *Usecase) dispatch(ctx context.Context, operation string, issued *engine.Issued) (*IssueOutput, error) {
	if err := s.repoEmail.Send(ctx, issued.Identifier, issued.Code, issued.Purpose, issued.ExpiresAt); err != nil {
		slog.ErrorContext(ctx, "failed to deliver verification code", "email", issued.Identifier, "error", err)

		if derr := s.engine.Discard(ctx, issued.Identifier); derr != nil {
			slog.ErrorContext(ctx, "failed to discard undelivered verification code", "email", issued.Identifier, "error", derr)
		}

		s.record(ctx, operation, "delivery_failed")
		return nil, goerror.NewUnavailable(err, "verification email could not be delivered, try again")
	}

	s.record(ctx, operation, "ok")
	return &IssueOutput{
		ExpiresAt:         issued.ExpiresAt,
		ResendAvailableAt: issued.ResendAvailableAt,
	}, nil
}

// mapError turns engine results into user-facing errors. Each failure keeps
// its own message.
func (s *Usecase) mapError(ctx context.Context, operation, email string, err error) error {
	var failure *engine.Failure
	if !errors.As(err, &failure) {
		slog.ErrorContext(ctx, "failed to run verification "+operation, "email", email, "error", err)
		s.record(ctx, operation, "error")
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "verification "+operation+" refused", "email", email, "reason", failure.Reason.String())
	s.record(ctx, operation, failure.Reason.String())

	switch failure.Reason {
	case engine.ReasonNotFound:
		return goerror.NewBusiness("no active verification code, request a new one", goerror.CodeNotFound)

	case engine.ReasonExpired:
		return goerror.NewBusiness("code expired, request a new one", goerror.CodeGone)

	case engine.ReasonInvalidCode:
		return goerror.NewBusinessWithFields(
			"wrong code, "+strconv.Itoa(failure.AttemptsRemaining)+" attempts remaining",
			goerror.CodeUnauthorized,
			"attempts_remaining", strconv.Itoa(failure.AttemptsRemaining),
		)

	case engine.ReasonLocked:
		return goerror.NewBusinessWithFields(
			"locked until "+failure.LockedUntil.UTC().Format(time.TimeOnly),
			goerror.CodeLocked,
			"locked_until", failure.LockedUntil.UTC().Format(time.RFC3339),
			"retry_after_seconds", seconds(failure.RetryAfter),
		)

	case engine.ReasonCooldownActive:
		return goerror.NewBusinessWithFields(
			"please wait before requesting another code",
			goerror.CodeTooManyRequest,
			"retry_after_seconds", seconds(failure.RetryAfter),
		)

	default:
		return goerror.NewServer(err)
	}
}

// seconds rounds up so a client never retries early.
func seconds(d time.Duration) string {
	return strconv.FormatInt(int64((d+time.Second-1)/time.Second), 10)
}
