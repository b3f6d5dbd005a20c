package app

import (
	"log/slog"
	"os"

	"github.com/gobackend-labs/authcore/internal/identity"
	"github.com/gobackend-labs/authcore/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			Config:          a.config,
			Instrument:      a.ins,
			UID:             a.uid,
			OID:             a.oid,
			Bcrypt:          a.bcrypt,
			HMAC:            a.hmac,
			Argon2ID:        a.argon2id,
			MFAEncryptor:    a.mfaEncryptor,
			MFARecoveryCode: a.mfaRecoveryCode,
			Clock:           a.clock,
			Validator:       a.validator,
			Router:          a.router,
			Totp:            a.totp,
			DBConn:          a.dbConn,
			CacheConn:       a.cacheConn,
			Messaging:       a.messaging,
			Goroutine:       a.goroutine,
			JWT:             a.jwt,
			Limiter:         a.limiter,
			Denylist:        a.denylist,
			Captcha:         a.captcha,
			QR:              a.qr,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Idempotency: a.idemp,
			Mail:        a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
