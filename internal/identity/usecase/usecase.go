package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/captcha"
	"github.com/gobackend-labs/authcore/internal/pkg/clock"
	"github.com/gobackend-labs/authcore/internal/pkg/config"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
	"github.com/gobackend-labs/authcore/internal/pkg/goroutine"
	"github.com/gobackend-labs/authcore/internal/pkg/hash"
	"github.com/gobackend-labs/authcore/internal/pkg/instrument"
	"github.com/gobackend-labs/authcore/internal/pkg/jwt"
	"github.com/gobackend-labs/authcore/internal/pkg/mfa"
	"github.com/gobackend-labs/authcore/internal/pkg/otp"
	"github.com/gobackend-labs/authcore/internal/pkg/qr"
	"github.com/gobackend-labs/authcore/internal/pkg/ratelimit"
	"github.com/gobackend-labs/authcore/internal/pkg/tokendeny"
	"github.com/gobackend-labs/authcore/internal/pkg/uid"
	"github.com/gobackend-labs/authcore/internal/pkg/validator"
)

type AccountRegistrationEvent struct {
	AccountID      int64
	Email          string
	ChallengeToken string
}

type PasswordResetRequestEvent struct {
	AccountID      int64
	Email          string
	ChallengeToken string
}

// SecurityAlertEvent notifies the account holder about a sensitive change.
type SecurityAlertEvent struct {
	AccountID int64
	Email     string
	Kind      string
	At        time.Time
}

const (
	AlertKindLockout           = "account_lockout"
	AlertKindPasswordChanged   = "password_changed"
	AlertKindTwoFactorEnabled  = "two_factor_enabled"
	AlertKindTwoFactorDisabled = "two_factor_disabled"
	AlertKindRecoveryCodeUsed  = "recovery_code_used"
)

type repoMessaging interface {
	PublishAccountRegistration(ctx context.Context, msg AccountRegistrationEvent) error
	PublishPasswordResetRequest(ctx context.Context, msg PasswordResetRequestEvent) error
	PublishSecurityAlert(ctx context.Context, msg SecurityAlertEvent) error
}

type repoDB interface {
	GetAccountLoginInfo(ctx context.Context, email string) (*entity.AccountLoginInfo, error)
	GetAccountCredentialInfo(ctx context.Context, id int64) (*entity.AccountCredentialInfo, error)
	GetAccountByEmail(ctx context.Context, email string, includeDeleted bool) (*entity.Account, error)
	GetChallengeAccountByTokenPurpose(ctx context.Context, token string, p entity.ChallengePurpose) (*entity.ChallengeAccount, error)
	GetTwoFactor(ctx context.Context, accountID int64) (*entity.TwoFactor, error)
	GetRecoveryCodes(ctx context.Context, accountID int64) ([]entity.RecoveryCode, error)
	GetTrustedDevice(ctx context.Context, accountID int64, tokenHash string) (*entity.TrustedDevice, error)
	GetPasswordHistory(ctx context.Context, accountID int64, limit int32) ([]entity.PasswordHistory, error)

	CreateChallenge(ctx context.Context, in entity.Challenge) error
	CreateTrustedDevice(ctx context.Context, in entity.TrustedDevice) error

	RegisterLoginFailure(ctx context.Context, accountID int64, threshold int32, lockUntil time.Time) (*entity.LoginFailureState, error)
	ResetLoginFailures(ctx context.Context, accountID int64) error

	NewRegistration(ctx context.Context, acct entity.NewAccount, chal entity.Challenge, hash string) error
	VerifyRegistration(ctx context.Context, data entity.VerifyRegistration) error
	EnableTwoFactor(ctx context.Context, tf entity.TwoFactor, codes []entity.RecoveryCode, challengeID int64) error
	DisableTwoFactor(ctx context.Context, accountID int64) error
	ConsumeRecoveryCode(ctx context.Context, codeID, accountID, challengeID int64) (bool, error)
	UpdatePassword(ctx context.Context, in entity.PasswordUpdate) error
	MarkAccountDeleted(ctx context.Context, accountID int64) error

	DeleteChallenge(ctx context.Context, id int64) error
	DeleteTrustedDevice(ctx context.Context, accountID int64, tokenHash string) error
	DeleteTrustedDevices(ctx context.Context, accountID int64) error
}

type Usecase struct {
	repoDB          repoDB
	repoMessaging   repoMessaging
	validator       validator.Validator
	cfg             config.Config
	hmac            hash.Hash
	bcrypt          hash.Hash
	argon2id        hash.Hash
	mfaEncryptor    mfa.Encryptor
	mfaRecoveryCode mfa.RecoveryCodeGenerator
	uid             uid.NumberID
	oid             uid.StringID
	totp            otp.OTP
	clock           clock.Clocker
	jwt             jwt.JWT
	ins             instrument.Instrumentation
	goroutine       *goroutine.Manager
	limiter         ratelimit.Limiter
	denylist        tokendeny.Denylist
	captcha         captcha.Verifier
	qr              qr.Encoder
	dummyHash       string
}

type Dependency struct {
	RepoDB          repoDB
	RepoMessaging   repoMessaging
	Validator       validator.Validator
	Config          config.Config
	HMAC            hash.Hash
	Bcrypt          hash.Hash
	Argon2ID        hash.Hash
	MFAEncryptor    mfa.Encryptor
	MFARecoveryCode mfa.RecoveryCodeGenerator
	UID             uid.NumberID
	OID             uid.StringID
	Totp            otp.OTP
	Clock           clock.Clocker
	JWT             jwt.JWT
	Instrument      instrument.Instrumentation
	Goroutine       *goroutine.Manager
	Limiter         ratelimit.Limiter
	Denylist        tokendeny.Denylist
	Captcha         captcha.Verifier
	QR              qr.Encoder
}

func New(dep Dependency) *Usecase {
	// Burned on lookups of unknown emails so both branches cost one compare.
	dummy, err := dep.Bcrypt.Hash("9e107d9d372bb6826bd81d3542a419d6")
	if err != nil {
		dummy = []byte("")
	}

	return &Usecase{
		repoDB:          dep.RepoDB,
		repoMessaging:   dep.RepoMessaging,
		validator:       dep.Validator,
		bcrypt:          dep.Bcrypt,
		hmac:            dep.HMAC,
		argon2id:        dep.Argon2ID,
		mfaEncryptor:    dep.MFAEncryptor,
		mfaRecoveryCode: dep.MFARecoveryCode,
		cfg:             dep.Config,
		uid:             dep.UID,
		oid:             dep.OID,
		totp:            dep.Totp,
		clock:           dep.Clock,
		jwt:             dep.JWT,
		ins:             dep.Instrument,
		goroutine:       dep.Goroutine,
		limiter:         dep.Limiter,
		denylist:        dep.Denylist,
		captcha:         dep.Captcha,
		qr:              dep.QR,
		dummyHash:       string(dummy),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) ensureAccountStatusAllowed(ctx context.Context, accountID int64, status entity.AccountStatus) error {
	sts := status.Ensure()
	switch sts {
	case entity.AccountStatusUnknown:
		slog.WarnContext(ctx, "account status is unrecognized", "account_id", accountID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)

	case entity.AccountStatusUnverified:
		slog.WarnContext(ctx, "account is unverified", "account_id", accountID)
		return goerror.NewBusiness("email not verified", goerror.CodeForbidden)

	case entity.AccountStatusBanned:
		slog.WarnContext(ctx, "account is banned", "account_id", accountID)
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)

	case entity.AccountStatusInactive:
		slog.WarnContext(ctx, "account is deleted", "account_id", accountID)
		return goerror.NewBusiness("account is deleted", goerror.CodeForbidden)

	default:
		return nil
	}
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// checkRateLimit counts one attempt for the (endpoint, identity) pair.
// A limiter store outage fails open: the attempt is allowed and logged.
func (s *Usecase) checkRateLimit(ctx context.Context, endpoint, identity string) error {
	limit := s.cfg.GetInt64("modules.identity.ratelimit." + endpoint + ".max_attempts")
	window := s.cfg.GetSecond("modules.identity.ratelimit." + endpoint + ".window_seconds")
	if limit <= 0 || window <= 0 {
		return nil
	}

	res, err := s.limiter.Allow(ctx, endpoint+":"+identity, limit, window)
	if err != nil {
		slog.WarnContext(ctx, "rate limiter unavailable, allowing attempt", "endpoint", endpoint, "error", err)
		return nil
	}

	if !res.Allowed {
		slog.WarnContext(ctx, "rate limit exceeded", "endpoint", endpoint, "attempts", res.Count)
		return goerror.NewRateLimited(res.RetryAfter)
	}

	return nil
}

func (s *Usecase) resetRateLimit(ctx context.Context, endpoint, identity string) {
	if err := s.limiter.Reset(ctx, endpoint+":"+identity); err != nil {
		slog.WarnContext(ctx, "failed to reset rate limit", "endpoint", endpoint, "error", err)
	}
}

func (s *Usecase) issueSession(ctx context.Context, accountID int64, email string, twoFactorVerified, remember bool) (string, error) {
	token, err := s.jwt.Generate(jwt.TokenInput{
		AccountID:         accountID,
		Email:             email,
		TwoFactorVerified: twoFactorVerified,
		EmailVerified:     true, // only verified accounts reach session issuance
		Remember:          remember,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate session token", "account_id", accountID, "error", err)
		return "", goerror.NewServer(err)
	}

	return token, nil
}

// issueTrustedDevice mints an opaque device token and stores its keyed hash.
func (s *Usecase) issueTrustedDevice(ctx context.Context, accountID int64) (string, error) {
	token := s.oid.Generate()

	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash trusted device token", "account_id", accountID, "error", err)
		return "", goerror.NewServer(err)
	}

	if err := s.repoDB.CreateTrustedDevice(ctx, entity.TrustedDevice{
		ID:        s.uid.Generate(),
		AccountID: accountID,
		TokenHash: string(tokenHash),
		ExpiresAt: s.clock.Now().Add(s.cfg.GetDay("modules.identity.trusted_device_ttl_days")),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create trusted device", "account_id", accountID, "error", err)
		return "", goerror.NewServer(err)
	}

	return token, nil
}

// revokeSessionsIssuedBefore invalidates every session of the account issued
// before now. Best effort: a denylist outage is logged, not fatal.
func (s *Usecase) revokeSessionsIssuedBefore(ctx context.Context, accountID int64) {
	ttl := s.cfg.GetDay("modules.identity.session.remember_ttl_days")
	if err := s.denylist.DenyAccount(ctx, accountID, s.clock.Now(), ttl); err != nil {
		slog.WarnContext(ctx, "failed to revoke prior sessions", "account_id", accountID, "error", err)
	}
}

func (s *Usecase) publishSecurityAlert(ctx context.Context, accountID int64, email, kind string) {
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		err := s.repoMessaging.PublishSecurityAlert(ctx, SecurityAlertEvent{
			AccountID: accountID,
			Email:     email,
			Kind:      kind,
			At:        s.clock.Now(),
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to publish security alert", "account_id", accountID, "kind", kind, "error", err)
		}
		return nil
	})
}

func rateLimitIdentity(accountID int64) string {
	return strconv.FormatInt(accountID, 10)
}
