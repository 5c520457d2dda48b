package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/cardnote/internal/verification"
)

func (a *App) initModules() {
	if err := verification.New(verification.Dependency{
		Ctx:        a.ctx,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Messaging:  a.messaging,
		Mail:       a.mail,
		Config:     a.config,
		Instrument: a.ins,
		HMAC:       a.hmac,
		Clock:      a.clock,
		Generator:  a.codeGen,
		Validator:  a.validator,
		CacheConn:  a.cacheConn,
		JWT:        a.jwt,
	}); err != nil {
		slog.Error("failed to init module verification", "error", err)
		os.Exit(1)
	}
}
