package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gobackend-labs/authcore/internal/identity/inbound"
	"github.com/gobackend-labs/authcore/internal/identity/outbound/db"
	"github.com/gobackend-labs/authcore/internal/identity/outbound/mq"
	"github.com/gobackend-labs/authcore/internal/identity/usecase"
	"github.com/gobackend-labs/authcore/internal/pkg/captcha"
	"github.com/gobackend-labs/authcore/internal/pkg/clock"
	"github.com/gobackend-labs/authcore/internal/pkg/config"
	"github.com/gobackend-labs/authcore/internal/pkg/goroutine"
	"github.com/gobackend-labs/authcore/internal/pkg/hash"
	"github.com/gobackend-labs/authcore/internal/pkg/instrument"
	"github.com/gobackend-labs/authcore/internal/pkg/jwt"
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

type Dependency struct {
	DBConn          *pgxpool.Pool              `validate:"required"`
	CacheConn       *redis.Client              `validate:"required"`
	Goroutine       *goroutine.Manager         `validate:"required"`
	Router          *router.Router             `validate:"required"`
	Messaging       messaging.Messaging        `validate:"required"`
	Config          config.Config              `validate:"required"`
	Instrument      instrument.Instrumentation `validate:"required"`
	UID             uid.NumberID               `validate:"required"`
	OID             uid.StringID               `validate:"required"`
	HMAC            hash.Hash                  `validate:"required"`
	Bcrypt          hash.Hash                  `validate:"required"`
	Argon2ID        hash.Hash                  `validate:"required"`
	MFAEncryptor    mfa.Encryptor              `validate:"required"`
	MFARecoveryCode mfa.RecoveryCodeGenerator  `validate:"required"`
	Clock           clock.Clocker              `validate:"required"`
	Totp            otp.OTP                    `validate:"required"`
	Validator       validator.Validator        `validate:"required"`
	JWT             jwt.JWT                    `validate:"required"`
	Limiter         ratelimit.Limiter          `validate:"required"`
	Denylist        tokendeny.Denylist         `validate:"required"`
	Captcha         captcha.Verifier           `validate:"required"`
	QR              qr.Encoder                 `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:          dbAuth,
		RepoMessaging:   repoMsg,
		Validator:       dep.Validator,
		Config:          dep.Config,
		HMAC:            dep.HMAC,
		Bcrypt:          dep.Bcrypt,
		Argon2ID:        dep.Argon2ID,
		MFAEncryptor:    dep.MFAEncryptor,
		MFARecoveryCode: dep.MFARecoveryCode,
		UID:             dep.UID,
		OID:             dep.OID,
		Totp:            dep.Totp,
		Clock:           dep.Clock,
		JWT:             dep.JWT,
		Instrument:      dep.Instrument,
		Goroutine:       dep.Goroutine,
		Limiter:         dep.Limiter,
		Denylist:        dep.Denylist,
		Captcha:         dep.Captcha,
		QR:              dep.QR,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
