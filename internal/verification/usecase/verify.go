package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/cardnote/internal/pkg/goerror"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
)

type VerifyInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,otpcode"`
}

type VerifyOutput struct {
	Email      string
	Purpose    entity.Purpose
	VerifiedAt time.Time
	// Ticket is empty when tickets are disabled.
	Ticket string
}

func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Email = entity.NormalizeIdentifier(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	verified, err := s.engine.Verify(ctx, in.Email, in.Code)
	if err != nil {
		return nil, s.mapError(ctx, "verify", in.Email, err)
	}
	s.record(ctx, "verify", "ok")

	out := &VerifyOutput{
		Email:      verified.Identifier,
		Purpose:    verified.Purpose,
		VerifiedAt: verified.VerifiedAt,
	}

	if s.jwt != nil {
		ticket, err := s.jwt.Generate(verified.Identifier, verified.Purpose.String())
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate verification ticket", "email", in.Email, "error", err)
			return nil, goerror.NewServer(err)
		}
		out.Ticket = ticket
	}

	if err := s.repoMessaging.PublishVerified(ctx, VerifiedEvent{
		Email:      verified.Identifier,
		Purpose:    verified.Purpose,
		VerifiedAt: verified.VerifiedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish verification verified", "email", in.Email, "error", err)
	}

	return out, nil
}
