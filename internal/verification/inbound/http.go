package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/cardnote/internal/pkg/router"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
	"github.com/shandysiswandi/cardnote/internal/verification/usecase"
)

type uc interface {
	RequestCode(ctx context.Context, in usecase.RequestCodeInput) (*usecase.IssueOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Resend(ctx context.Context, in usecase.ResendInput) (*usecase.IssueOutput, error)
	Status(ctx context.Context, in usecase.StatusInput) (*entity.Countdown, error)
}

// RegisterHTTPEndpoint mounts the verification API. Only the ticket
// introspection route requires a bearer ticket.
func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.Public(http.MethodPost, "/api/v1/verification/code", end.RequestCode)
	r.Public(http.MethodPost, "/api/v1/verification/verify", end.Verify)
	r.Public(http.MethodPost, "/api/v1/verification/resend", end.Resend)
	r.Public(http.MethodGet, "/api/v1/verification/status", end.Status)

	r.GET("/api/v1/verification/ticket", end.Ticket)
}
