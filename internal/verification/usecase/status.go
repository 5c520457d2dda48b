package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/cardnote/internal/pkg/goerror"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
)

type StatusInput struct {
	Email string `validate:"required,email"`
}

func (s *Usecase) Status(ctx context.Context, in StatusInput) (*entity.Countdown, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	in.Email = entity.NormalizeIdentifier(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	countdown, err := s.engine.Status(ctx, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get verification status", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &countdown, nil
}
