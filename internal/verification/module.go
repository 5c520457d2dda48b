package verification

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/cardnote/internal/pkg/clock"
	"github.com/shandysiswandi/cardnote/internal/pkg/config"
	"github.com/shandysiswandi/cardnote/internal/pkg/goroutine"
	"github.com/shandysiswandi/cardnote/internal/pkg/hash"
	"github.com/shandysiswandi/cardnote/internal/pkg/instrument"
	"github.com/shandysiswandi/cardnote/internal/pkg/jwt"
	"github.com/shandysiswandi/cardnote/internal/pkg/mail"
	"github.com/shandysiswandi/cardnote/internal/pkg/messaging"
	"github.com/shandysiswandi/cardnote/internal/pkg/otp"
	"github.com/shandysiswandi/cardnote/internal/pkg/router"
	"github.com/shandysiswandi/cardnote/internal/pkg/validator"
	"github.com/shandysiswandi/cardnote/internal/verification/engine"
	"github.com/shandysiswandi/cardnote/internal/verification/inbound"
	"github.com/shandysiswandi/cardnote/internal/verification/outbound/email"
	"github.com/shandysiswandi/cardnote/internal/verification/outbound/limiter"
	"github.com/shandysiswandi/cardnote/internal/verification/outbound/mq"
	"github.com/shandysiswandi/cardnote/internal/verification/outbound/store"
	"github.com/shandysiswandi/cardnote/internal/verification/usecase"
)

// ErrCacheRequired is returned when the redis store is selected without a
// redis connection.
var ErrCacheRequired = errors.New("verification: redis store selected but no cache connection")

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Generator  otp.Generator              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	// CacheConn is needed only when modules.verification.store is redis.
	CacheConn *redis.Client
	// JWT is nil when verification tickets are disabled.
	JWT jwt.JWT
}

type reaper interface {
	Reap(ctx context.Context) (int, error)
}

// pruner is implemented by limiters that hold reservations in process.
type pruner interface {
	Prune(now time.Time) int
}

// New wires the verification module and schedules the session reaper.
func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	cfg := engineConfig(dep.Config)
	grace := dep.Config.GetSecond("modules.verification.retention_grace_seconds")

	var repo interface {
		engine.SessionRepository
		reaper
	}
	var rl engine.RateLimiter

	switch strings.ToLower(dep.Config.GetString("modules.verification.store")) {
	case "redis":
		if dep.CacheConn == nil {
			return ErrCacheRequired
		}
		repo = store.NewRedis(dep.CacheConn, dep.Clock, grace, dep.Instrument)
		rl = limiter.NewRedis(dep.CacheConn, cfg.Cooldown)
	default:
		repo = store.NewMemory(dep.Clock, grace)
		rl = limiter.NewMemory(cfg.Cooldown)
	}

	eng, err := engine.New(engine.Dependency{
		Repository: repo,
		Limiter:    rl,
		Generator:  dep.Generator,
		Hasher:     dep.HMAC,
		Clock:      dep.Clock,
		Config:     cfg,
	})
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		Engine:        eng,
		RepoEmail:     email.New(dep.Mail, dep.Config.GetString("mail.from"), dep.Clock, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:     dep.Validator,
		JWT:           dep.JWT,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	interval := dep.Config.GetSecond("modules.verification.reap_interval_seconds")
	dep.Goroutine.Every(dep.Ctx, "verification.reaper", interval, reap(repo, rl, dep.Clock))

	return nil
}

// engineConfig reads the policy. Zero values keep the defaults, except for the
// cooldown where zero disables it.
func engineConfig(c config.Config) engine.Config {
	cfg := engine.DefaultConfig()

	if v := c.GetSecond("modules.verification.ttl_seconds"); v > 0 {
		cfg.TTL = v
	}
	if v := c.GetInt("modules.verification.max_attempts"); v > 0 {
		cfg.MaxAttempts = v
	}
	if v := c.GetSecond("modules.verification.lock_seconds"); v > 0 {
		cfg.LockDuration = v
	}
	cfg.Cooldown = max(c.GetSecond("modules.verification.cooldown_seconds"), 0)
	if v := c.GetInt("modules.verification.code_length"); v > 0 {
		cfg.CodeLength = v
	}
	if v := c.GetString("modules.verification.alphabet"); v != "" {
		cfg.Alphabet = otp.ParseAlphabet(v)
	}
	cfg.ResetAttemptsOnResend = c.GetBool("modules.verification.reset_attempts_on_resend")
	cfg.LockBlocksReissue = c.GetBool("modules.verification.lock_blocks_reissue")

	return cfg
}

// reap drops sessions past retention and, for in-process limiters, the
// reservations whose cooldown is over.
func reap(repo reaper, rl engine.RateLimiter, clk clock.Clocker) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := repo.Reap(ctx)
		if n > 0 {
			slog.DebugContext(ctx, "reaped verification sessions", "count", n)
		}
		if p, ok := rl.(pruner); ok {
			if pruned := p.Prune(clk.Now()); pruned > 0 {
				slog.DebugContext(ctx, "pruned cooldown reservations", "count", pruned)
			}
		}
		return err
	}
}
