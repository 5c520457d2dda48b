package usecase

import (
	"context"

	"github.com/shandysiswandi/cardnote/internal/pkg/goerror"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
)

type ResendInput struct {
	Email string `validate:"required,email"`
	// Purpose is optional; an existing session keeps its own.
	Purpose string `validate:"omitempty,oneof=signup password_reset"`
}

func (s *Usecase) Resend(ctx context.Context, in ResendInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Resend")
	defer span.End()

	in.Email = entity.NormalizeIdentifier(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	// An empty purpose parses to the zero value, which keeps the session's own.
	purpose, _ := entity.ParsePurpose(in.Purpose)
	issued, err := s.engine.Resend(ctx, in.Email, purpose)
	if err != nil {
		return nil, s.mapError(ctx, "resend", in.Email, err)
	}

	return s.dispatch(ctx, "resend", issued)
}
