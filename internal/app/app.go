package app

import (
	"context"
	"net/http"
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
	"github.com/shandysiswandi/cardnote/internal/pkg/uid"
	"github.com/shandysiswandi/cardnote/internal/pkg/validator"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

// App owns the verification service process: its shared libraries, external
// connections, HTTP server and the background session reaper.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config config.Config
	ins    instrument.Instrumentation

	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uuid      uid.StringID
	codeGen   otp.Generator
	jwt       jwt.JWT // nil when verification tickets are disabled

	cacheConn *redis.Client // nil unless the redis store is selected
	mail      mail.Mail
	messaging messaging.Messaging

	router     *router.Router
	httpServer *http.Server

	closers []closer
}

// New builds the App. Any wiring failure is fatal and exits the process.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{ctx: ctx, cancel: cancel}

	for _, step := range []func(){
		a.initConfig,
		a.initInstrument,
		a.initLibraries,
		a.initJWT,
		a.initCache,
		a.initMail,
		a.initMessaging,
		a.initHTTPServer,
		a.initModules,
		a.initClosers,
	} {
		step()
	}

	return a
}

// ShutdownTimeout bounds Stop.
func (a *App) ShutdownTimeout() time.Duration {
	if d := a.config.GetSecond("app.server.shutdown_timeout_seconds"); d > 0 {
		return d
	}
	return 10 * time.Second
}
