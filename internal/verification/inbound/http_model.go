package inbound

import (
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
	"github.com/shandysiswandi/cardnote/internal/verification/usecase"
)

type RequestCodeRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type issueResponse struct {
	ExpiresAt         time.Time `json:"expires_at"`
	ResendAvailableAt time.Time `json:"resend_available_at"`
}

func newIssueResponse(out *usecase.IssueOutput) issueResponse {
	return issueResponse{
		ExpiresAt:         out.ExpiresAt,
		ResendAvailableAt: out.ResendAvailableAt,
	}
}

type RequestCodeResponse struct {
	issueResponse
}

func (RequestCodeResponse) Message() string {
	return "Verification code sent. Please check your email."
}

type ResendRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose,omitempty"`
}

type ResendResponse struct {
	issueResponse
}

func (ResendResponse) Message() string {
	return "A new verification code has been sent."
}

type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifyResponse struct {
	Email      string    `json:"email"`
	Purpose    string    `json:"purpose"`
	Ticket     string    `json:"ticket,omitempty"`
	VerifiedAt time.Time `json:"verified_at"`
}

func (VerifyResponse) Message() string {
	return "Email verified."
}

type StatusResponse struct {
	State               string     `json:"state"`
	Purpose             string     `json:"purpose,omitempty"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
	ExpiresInSeconds    int64      `json:"expires_in_seconds"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	LockedForSeconds    int64      `json:"locked_for_seconds"`
	ResendAvailableAt   *time.Time `json:"resend_available_at,omitempty"`
	CooldownLeftSeconds int64      `json:"cooldown_left_seconds"`
	AttemptsRemaining   int        `json:"attempts_remaining"`
}

func newStatusResponse(c *entity.Countdown) StatusResponse {
	return StatusResponse{
		State:               c.State.String(),
		Purpose:             c.Purpose.String(),
		ExpiresAt:           lo.EmptyableToPtr(c.ExpiresAt),
		ExpiresInSeconds:    ceilSeconds(c.ExpiresIn),
		LockedUntil:         lo.EmptyableToPtr(c.LockedUntil),
		LockedForSeconds:    ceilSeconds(c.LockedFor),
		ResendAvailableAt:   lo.EmptyableToPtr(c.ResendAvailableAt),
		CooldownLeftSeconds: ceilSeconds(c.CooldownLeft),
		AttemptsRemaining:   c.AttemptsRemaining,
	}
}

func ceilSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}

type TicketResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expires_at"`
}
