package inbound

import (
	"github.com/shandysiswandi/cardnote/internal/pkg/goerror"
	"github.com/shandysiswandi/cardnote/internal/pkg/jwt"
	"github.com/shandysiswandi/cardnote/internal/pkg/router"
	"github.com/shandysiswandi/cardnote/internal/verification/usecase"
)

// HTTPEndpoint exposes the email verification workflow over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// RequestCode emails a fresh code. The code itself never appears in the response.
func (h *HTTPEndpoint) RequestCode(r *router.Request) (any, error) {
	var req RequestCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestCode(r.Context(), usecase.RequestCodeInput{
		Email:   req.Email,
		Purpose: req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return RequestCodeResponse{issueResponse: newIssueResponse(resp)}, nil
}

func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	var req ResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Resend(r.Context(), usecase.ResendInput{
		Email:   req.Email,
		Purpose: req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return ResendResponse{issueResponse: newIssueResponse(resp)}, nil
}

func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{
		Email:      resp.Email,
		Purpose:    resp.Purpose.String(),
		Ticket:     resp.Ticket,
		VerifiedAt: resp.VerifiedAt,
	}, nil
}

// Status reports countdowns for a display to tick down locally.
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context(), usecase.StatusInput{
		Email: r.GetQuery("email"),
	})
	if err != nil {
		return nil, err
	}

	return newStatusResponse(resp), nil
}

// Ticket echoes the claims of the bearer ticket so a client can check it
// before handing it to the identity provider.
func (h *HTTPEndpoint) Ticket(r *router.Request) (any, error) {
	clm := jwt.GetTicket(r.Context())
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return TicketResponse{
		ID:        clm.ID,
		Email:     clm.Email,
		Purpose:   clm.Purpose,
		ExpiresAt: clm.ExpiresAt.Time,
	}, nil
}
