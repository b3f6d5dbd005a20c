package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gobackend-labs/authcore/internal/pkg/captcha"
	"github.com/gobackend-labs/authcore/internal/pkg/clock"
	"github.com/gobackend-labs/authcore/internal/pkg/config"
	"github.com/gobackend-labs/authcore/internal/pkg/goroutine"
	"github.com/gobackend-labs/authcore/internal/pkg/hash"
	"github.com/gobackend-labs/authcore/internal/pkg/idempotency"
	"github.com/gobackend-labs/authcore/internal/pkg/instrument"
	"github.com/gobackend-labs/authcore/internal/pkg/jwt"
	"github.com/gobackend-labs/authcore/internal/pkg/mail"
	"github.com/gobackend-labs/authcore/internal/pkg/messaging"
	"github.com/gobackend-labs/authcore/internal/pkg/mfa"
	"github.com/gobackend-labs/authcore/internal/pkg/otp"
	"github.com/gobackend-labs/authcore/internal/pkg/qr"
	"github.com/gobackend-labs/authcore/internal/pkg/ratelimit"
	"github.com/gobackend-labs/authcore/internal/pkg/router"
	"github.com/gobackend-labs/authcore/internal/pkg/tokendeny"
	"github.com/gobackend-labs/authcore/internal/pkg/uid"
	"github.com/gobackend-labs/authcore/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine       *goroutine.Manager
	validator       validator.Validator
	clock           clock.Clocker
	hmac            hash.Hash
	argon2id        hash.Hash
	bcrypt          hash.Hash
	uid             uid.NumberID
	oid             uid.StringID
	uuid            uid.StringID
	totp            otp.OTP
	jwt             jwt.JWT
	mfaEncryptor    mfa.Encryptor
	mfaRecoveryCode mfa.RecoveryCodeGenerator
	captcha         captcha.Verifier
	qr              qr.Encoder

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	limiter   ratelimit.Limiter
	denylist  tokendeny.Denylist
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
