package usecase

import (
	"context"

	"github.com/shandysiswandi/cardnote/internal/pkg/goerror"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
)

type RequestCodeInput struct {
	Email   string `validate:"required,email"`
	Purpose string `validate:"required,oneof=signup password_reset"`
}

func (s *Usecase) RequestCode(ctx context.Context, in RequestCodeInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestCode")
	defer span.End()

	in.Email = entity.NormalizeIdentifier(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose, _ := entity.ParsePurpose(in.Purpose)
	issued, err := s.engine.RequestCode(ctx, in.Email, purpose)
	if err != nil {
		return nil, s.mapError(ctx, "request_code", in.Email, err)
	}

	return s.dispatch(ctx, "request_code", issued)
}
