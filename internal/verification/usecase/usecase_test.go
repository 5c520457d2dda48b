package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/cardnote/internal/pkg/clock"
	"github.com/shandysiswandi/cardnote/internal/pkg/goerror"
	"github.com/shandysiswandi/cardnote/internal/pkg/hash"
	"github.com/shandysiswandi/cardnote/internal/pkg/instrument"
	"github.com/shandysiswandi/cardnote/internal/pkg/jwt"
	"github.com/shandysiswandi/cardnote/internal/pkg/otp"
	"github.com/shandysiswandi/cardnote/internal/pkg/uid"
	"github.com/shandysiswandi/cardnote/internal/pkg/validator"
	"github.com/shandysiswandi/cardnote/internal/verification/engine"
	"github.com/shandysiswandi/cardnote/internal/verification/entity"
	"github.com/shandysiswandi/cardnote/internal/verification/outbound/limiter"
	"github.com/shandysiswandi/cardnote/internal/verification/outbound/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeEmail struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (f *fakeEmail) Send(_ context.Context, identifier, code string, _ entity.Purpose, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.codes[identifier] = code
	return nil
}

func (f *fakeEmail) last(identifier string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[identifier]
}

type fakeMessaging struct {
	events []VerifiedEvent
	err    error
}

func (f *fakeMessaging) PublishVerified(_ context.Context, msg VerifiedEvent) error {
	f.events = append(f.events, msg)
	return f.err
}

type fixture struct {
	uc    *Usecase
	clock *clock.Manual
	email *fakeEmail
	mq    *fakeMessaging
	jwt   *jwt.Symmetric
}

func newFixture(t *testing.T, withTicket bool) *fixture {
	t.Helper()

	clk := clock.NewManual(t0)
	cfg := engine.DefaultConfig()
	eng, err := engine.New(engine.Dependency{
		Repository: store.NewMemory(clk, time.Minute),
		Limiter:    limiter.NewMemory(cfg.Cooldown),
		Generator:  otp.NewRandom(),
		Hasher:     hash.NewHMACSHA256("usecase-test-secret"),
		Clock:      clk,
		Config:     cfg,
	})
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	f := &fixture{
		clock: clk,
		email: &fakeEmail{codes: map[string]string{}},
		mq:    &fakeMessaging{},
	}

	dep := Dependency{
		Engine:        eng,
		RepoEmail:     f.email,
		RepoMessaging: f.mq,
		Validator:     v,
		Clock:         clk,
		Instrument:    instrument.NewNoop(),
	}
	if withTicket {
		f.jwt, err = jwt.NewHS512(jwt.Config{
			Secret:    []byte(strings.Repeat("s", 64)),
			Issuer:    "cardnote",
			Audiences: []string{"identity"},
			TTL:       10 * time.Minute,
			Clock:     clk,
			UUID:      uid.NewUUID(),
		})
		require.NoError(t, err)
		dep.JWT = f.jwt
	}

	f.uc = New(dep)
	return f
}

func requireGoError(t *testing.T, err error, status int) *goerror.Error {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, status, gerr.StatusCode(), gerr.Msg())
	return gerr
}

func TestUsecase_RequestCodeAndVerify(t *testing.T) {
	// Arrange
	f := newFixture(t, true)
	ctx := t.Context()

	out, err := f.uc.RequestCode(ctx, RequestCodeInput{Email: " A@B.com", Purpose: "signup"})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(5*time.Minute), out.ExpiresAt)
	assert.Equal(t, t0.Add(time.Minute), out.ResendAvailableAt)

	code := f.email.last("a@b.com")
	require.Len(t, code, 6)

	// Act
	f.clock.Advance(10 * time.Second)
	res, err := f.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: code})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", res.Email)
	assert.Equal(t, entity.PurposeSignup, res.Purpose)
	assert.Equal(t, t0.Add(10*time.Second), res.VerifiedAt)

	claims, err := f.jwt.Verify(res.Ticket)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "signup", claims.Purpose)

	require.Len(t, f.mq.events, 1)
	assert.Equal(t, VerifiedEvent{Email: "a@b.com", Purpose: entity.PurposeSignup, VerifiedAt: t0.Add(10 * time.Second)}, f.mq.events[0])
}

func TestUsecase_VerifyWithoutTicket(t *testing.T) {
	f := newFixture(t, false)
	ctx := t.Context()

	_, err := f.uc.RequestCode(ctx, RequestCodeInput{Email: "a@b.com", Purpose: "password_reset"})
	require.NoError(t, err)

	res, err := f.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: f.email.last("a@b.com")})
	require.NoError(t, err)
	assert.Empty(t, res.Ticket)
	assert.Equal(t, entity.PurposePasswordReset, res.Purpose)
}

func TestUsecase_VerifyPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, false)
	f.mq.err = errors.New("broker down")
	ctx := t.Context()

	_, err := f.uc.RequestCode(ctx, RequestCodeInput{Email: "a@b.com", Purpose: "signup"})
	require.NoError(t, err)

	_, err = f.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: f.email.last("a@b.com")})
	assert.NoError(t, err)
}

func TestUsecase_Validation(t *testing.T) {
	f := newFixture(t, false)
	ctx := t.Context()

	_, err := f.uc.RequestCode(ctx, RequestCodeInput{Email: "not-an-email", Purpose: "signup"})
	requireGoError(t, err, http.StatusUnprocessableEntity)

	_, err = f.uc.RequestCode(ctx, RequestCodeInput{Email: "a@b.com", Purpose: "login"})
	requireGoError(t, err, http.StatusUnprocessableEntity)

	_, err = f.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: "12"})
	requireGoError(t, err, http.StatusUnprocessableEntity)

	_, err = f.uc.Resend(ctx, ResendInput{Email: "a@b.com", Purpose: "login"})
	requireGoError(t, err, http.StatusUnprocessableEntity)

	_, err = f.uc.Status(ctx, StatusInput{})
	requireGoError(t, err, http.StatusUnprocessableEntity)
}

func TestUsecase_FailureMessages(t *testing.T) {
	f := newFixture(t, false)
	ctx := t.Context()

	gerr := requireGoError(t, verify(f, "000000"), http.StatusNotFound)
	assert.Equal(t, "no active verification code, request a new one", gerr.Msg())

	_, err := f.uc.RequestCode(ctx, RequestCodeInput{Email: "a@b.com", Purpose: "signup"})
	require.NoError(t, err)
	code := f.email.last("a@b.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	gerr = requireGoError(t, verify(f, wrong), http.StatusUnauthorized)
	assert.Equal(t, "wrong code, 2 attempts remaining", gerr.Msg())
	assert.Equal(t, "2", gerr.Fields()["attempts_remaining"])

	f.clock.Advance(10 * time.Second)
	_, err = f.uc.Resend(ctx, ResendInput{Email: "a@b.com"})
	gerr = requireGoError(t, err, http.StatusTooManyRequests)
	assert.Equal(t, "please wait before requesting another code", gerr.Msg())
	assert.Equal(t, "50", gerr.Fields()["retry_after_seconds"])

	requireGoError(t, verify(f, wrong), http.StatusUnauthorized)
	gerr = requireGoError(t, verify(f, wrong), http.StatusLocked)
	assert.Equal(t, "locked until 09:15:10", gerr.Msg())
	assert.Equal(t, "2026-03-01T09:15:10Z", gerr.Fields()["locked_until"])
	assert.Equal(t, "900", gerr.Fields()["retry_after_seconds"])

	f.clock.Advance(5 * time.Minute)
	gerr = requireGoError(t, verify(f, code), http.StatusGone)
	assert.Equal(t, "code expired, request a new one", gerr.Msg())
}

func verify(f *fixture, code string) error {
	_, err := f.uc.Verify(context.Background(), VerifyInput{Email: "a@b.com", Code: code})
	return err
}

func TestUsecase_DeliveryFailureRollsBack(t *testing.T) {
	f := newFixture(t, false)
	ctx := t.Context()
	f.email.err = errors.New("smtp down")

	_, err := f.uc.RequestCode(ctx, RequestCodeInput{Email: "a@b.com", Purpose: "signup"})
	gerr := requireGoError(t, err, http.StatusServiceUnavailable)
	assert.Equal(t, "verification email could not be delivered, try again", gerr.Msg())

	status, err := f.uc.Status(ctx, StatusInput{Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, entity.StateNoSession, status.State)

	f.email.err = nil
	_, err = f.uc.RequestCode(ctx, RequestCodeInput{Email: "a@b.com", Purpose: "signup"})
	assert.NoError(t, err, "no cooldown left behind")
}

func TestUsecase_ResendKeepsPurpose(t *testing.T) {
	f := newFixture(t, false)
	ctx := t.Context()

	_, err := f.uc.RequestCode(ctx, RequestCodeInput{Email: "a@b.com", Purpose: "password_reset"})
	require.NoError(t, err)
	old := f.email.last("a@b.com")

	f.clock.Advance(70 * time.Second)
	out, err := f.uc.Resend(ctx, ResendInput{Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), out.ExpiresAt)

	fresh := f.email.last("a@b.com")
	res, err := f.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: fresh})
	require.NoError(t, err)
	assert.Equal(t, entity.PurposePasswordReset, res.Purpose)

	if old != fresh {
		_, err = f.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: old})
		requireGoError(t, err, http.StatusNotFound)
	}
}

func TestUsecase_Status(t *testing.T) {
	f := newFixture(t, false)
	ctx := t.Context()

	_, err := f.uc.RequestCode(ctx, RequestCodeInput{Email: "a@b.com", Purpose: "signup"})
	require.NoError(t, err)

	f.clock.Advance(30 * time.Second)
	status, err := f.uc.Status(ctx, StatusInput{Email: "A@B.COM"})
	require.NoError(t, err)
	assert.Equal(t, entity.StateActive, status.State)
	assert.Equal(t, 270*time.Second, status.ExpiresIn)
	assert.Equal(t, 30*time.Second, status.CooldownLeft)
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, "0", seconds(0))
	assert.Equal(t, "1", seconds(time.Millisecond))
	assert.Equal(t, "60", seconds(time.Minute))
}
