package usecase

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	libOTP "github.com/pquerna/otp"
	"github.com/stretchr/testify/require"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/captcha"
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
	"github.com/gobackend-labs/authcore/internal/pkg/validator"
)

const testConfigYAML = `
modules:
  identity:
    mfa_login_ttl_minutes: 5
    totp_enroll_ttl_minutes: 10
    password_reset_ttl_hours: 1
    registration_ttl_hours: 24
    trusted_device_ttl_days: 30
    session:
      remember_ttl_days: 30
    ratelimit:
      login:
        max_attempts: 10
        window_seconds: 60
      2fa:
        max_attempts: 5
        window_seconds: 60
      password_change:
        max_attempts: 5
        window_seconds: 300
      password_forgot:
        max_attempts: 3
        window_seconds: 300
`

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type seqNumberID struct {
	n int64
}

func (s *seqNumberID) Generate() int64 {
	s.n++
	return s.n
}

type seqStringID struct {
	prefix string
	n      int
}

func (s *seqStringID) Generate() string {
	s.n++
	return s.prefix + "-" + strconv.Itoa(s.n)
}

type fakeLimiter struct {
	mu         sync.Mutex
	deny       bool
	retryAfter time.Duration
	err        error
	allowKeys  []string
	resetKeys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int64, window time.Duration) (ratelimit.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.allowKeys = append(f.allowKeys, key)
	if f.err != nil {
		return ratelimit.Result{}, f.err
	}
	if f.deny {
		ra := f.retryAfter
		if ra <= 0 {
			ra = window
		}
		return ratelimit.Result{Allowed: false, Count: 99, RetryAfter: ra}, nil
	}

	return ratelimit.Result{Allowed: true, Count: 1}, nil
}

func (f *fakeLimiter) Reset(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resetKeys = append(f.resetKeys, key)
	return nil
}

type fakeDenylist struct {
	mu             sync.Mutex
	deniedTokens   map[string]time.Duration
	deniedAccounts map[int64]time.Time
	err            error
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{
		deniedTokens:   make(map[string]time.Duration),
		deniedAccounts: make(map[int64]time.Time),
	}
}

func (f *fakeDenylist) DenyToken(_ context.Context, jti string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.deniedTokens[jti] = ttl
	return nil
}

func (f *fakeDenylist) DenyAccount(_ context.Context, accountID int64, at time.Time, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.deniedAccounts[accountID] = at
	return nil
}

func (f *fakeDenylist) IsDenied(context.Context, string, int64, time.Time) (bool, error) {
	return false, nil
}

type fakeMessaging struct {
	mu            sync.Mutex
	registrations []AccountRegistrationEvent
	resets        []PasswordResetRequestEvent
	alerts        []SecurityAlertEvent
}

func (f *fakeMessaging) PublishAccountRegistration(_ context.Context, msg AccountRegistrationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.registrations = append(f.registrations, msg)
	return nil
}

func (f *fakeMessaging) PublishPasswordResetRequest(_ context.Context, msg PasswordResetRequestEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resets = append(f.resets, msg)
	return nil
}

func (f *fakeMessaging) PublishSecurityAlert(_ context.Context, msg SecurityAlertEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.alerts = append(f.alerts, msg)
	return nil
}

func (f *fakeMessaging) alertKinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	kinds := make([]string, 0, len(f.alerts))
	for _, a := range f.alerts {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

// fakeRepoDB implements repoDB with per-method hooks. Nil getter hooks behave
// like an empty store, nil mutator hooks succeed and record their inputs.
type fakeRepoDB struct {
	mu sync.Mutex

	getAccountLoginInfo      func(email string) (*entity.AccountLoginInfo, error)
	getAccountCredentialInfo func(id int64) (*entity.AccountCredentialInfo, error)
	getAccountByEmail        func(email string, includeDeleted bool) (*entity.Account, error)
	getChallengeAccount      func(tokenHash string, p entity.ChallengePurpose) (*entity.ChallengeAccount, error)
	getTwoFactor             func(accountID int64) (*entity.TwoFactor, error)
	getRecoveryCodes         func(accountID int64) ([]entity.RecoveryCode, error)
	getTrustedDevice         func(accountID int64, tokenHash string) (*entity.TrustedDevice, error)
	getPasswordHistory       func(accountID int64, limit int32) ([]entity.PasswordHistory, error)
	registerLoginFailure     func(accountID int64, threshold int32, lockUntil time.Time) (*entity.LoginFailureState, error)
	consumeRecoveryCode      func(codeID, accountID, challengeID int64) (bool, error)

	createdChallenges     []entity.Challenge
	createdDevices        []entity.TrustedDevice
	resetFailureAccounts  []int64
	registrations         []entity.NewAccount
	verifiedRegistrations []entity.VerifyRegistration
	enabledTwoFactors     []entity.TwoFactor
	enabledRecoveryCodes  [][]entity.RecoveryCode
	disabledTwoFactors    []int64
	consumedCodes         [][3]int64
	passwordUpdates       []entity.PasswordUpdate
	deletedAccounts       []int64
	deletedChallenges     []int64
	deletedDevices        [][2]string
	deletedDeviceSweeps   []int64
	historyLimits         []int32
}

func (f *fakeRepoDB) GetAccountLoginInfo(_ context.Context, email string) (*entity.AccountLoginInfo, error) {
	if f.getAccountLoginInfo == nil {
		return nil, goerror.ErrNotFound
	}
	return f.getAccountLoginInfo(email)
}

func (f *fakeRepoDB) GetAccountCredentialInfo(_ context.Context, id int64) (*entity.AccountCredentialInfo, error) {
	if f.getAccountCredentialInfo == nil {
		return nil, goerror.ErrNotFound
	}
	return f.getAccountCredentialInfo(id)
}

func (f *fakeRepoDB) GetAccountByEmail(_ context.Context, email string, includeDeleted bool) (*entity.Account, error) {
	if f.getAccountByEmail == nil {
		return nil, goerror.ErrNotFound
	}
	return f.getAccountByEmail(email, includeDeleted)
}

func (f *fakeRepoDB) GetChallengeAccountByTokenPurpose(_ context.Context, token string, p entity.ChallengePurpose) (*entity.ChallengeAccount, error) {
	if f.getChallengeAccount == nil {
		return nil, goerror.ErrNotFound
	}
	return f.getChallengeAccount(token, p)
}

func (f *fakeRepoDB) GetTwoFactor(_ context.Context, accountID int64) (*entity.TwoFactor, error) {
	if f.getTwoFactor == nil {
		return nil, goerror.ErrNotFound
	}
	return f.getTwoFactor(accountID)
}

func (f *fakeRepoDB) GetRecoveryCodes(_ context.Context, accountID int64) ([]entity.RecoveryCode, error) {
	if f.getRecoveryCodes == nil {
		return nil, nil
	}
	return f.getRecoveryCodes(accountID)
}

func (f *fakeRepoDB) GetTrustedDevice(_ context.Context, accountID int64, tokenHash string) (*entity.TrustedDevice, error) {
	if f.getTrustedDevice == nil {
		return nil, goerror.ErrNotFound
	}
	return f.getTrustedDevice(accountID, tokenHash)
}

func (f *fakeRepoDB) GetPasswordHistory(_ context.Context, accountID int64, limit int32) ([]entity.PasswordHistory, error) {
	f.mu.Lock()
	f.historyLimits = append(f.historyLimits, limit)
	f.mu.Unlock()

	if f.getPasswordHistory == nil {
		return nil, nil
	}
	return f.getPasswordHistory(accountID, limit)
}

func (f *fakeRepoDB) CreateChallenge(_ context.Context, in entity.Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createdChallenges = append(f.createdChallenges, in)
	return nil
}

func (f *fakeRepoDB) CreateTrustedDevice(_ context.Context, in entity.TrustedDevice) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createdDevices = append(f.createdDevices, in)
	return nil
}

func (f *fakeRepoDB) RegisterLoginFailure(_ context.Context, accountID int64, threshold int32, lockUntil time.Time) (*entity.LoginFailureState, error) {
	if f.registerLoginFailure == nil {
		return &entity.LoginFailureState{FailedAttempts: 1}, nil
	}
	return f.registerLoginFailure(accountID, threshold, lockUntil)
}

func (f *fakeRepoDB) ResetLoginFailures(_ context.Context, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resetFailureAccounts = append(f.resetFailureAccounts, accountID)
	return nil
}

func (f *fakeRepoDB) NewRegistration(_ context.Context, acct entity.NewAccount, chal entity.Challenge, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.registrations = append(f.registrations, acct)
	f.createdChallenges = append(f.createdChallenges, chal)
	return nil
}

func (f *fakeRepoDB) VerifyRegistration(_ context.Context, data entity.VerifyRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.verifiedRegistrations = append(f.verifiedRegistrations, data)
	return nil
}

func (f *fakeRepoDB) EnableTwoFactor(_ context.Context, tf entity.TwoFactor, codes []entity.RecoveryCode, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.enabledTwoFactors = append(f.enabledTwoFactors, tf)
	f.enabledRecoveryCodes = append(f.enabledRecoveryCodes, codes)
	return nil
}

func (f *fakeRepoDB) DisableTwoFactor(_ context.Context, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.disabledTwoFactors = append(f.disabledTwoFactors, accountID)
	return nil
}

func (f *fakeRepoDB) ConsumeRecoveryCode(_ context.Context, codeID, accountID, challengeID int64) (bool, error) {
	f.mu.Lock()
	f.consumedCodes = append(f.consumedCodes, [3]int64{codeID, accountID, challengeID})
	f.mu.Unlock()

	if f.consumeRecoveryCode == nil {
		return true, nil
	}
	return f.consumeRecoveryCode(codeID, accountID, challengeID)
}

func (f *fakeRepoDB) UpdatePassword(_ context.Context, in entity.PasswordUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.passwordUpdates = append(f.passwordUpdates, in)
	return nil
}

func (f *fakeRepoDB) MarkAccountDeleted(_ context.Context, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletedAccounts = append(f.deletedAccounts, accountID)
	return nil
}

func (f *fakeRepoDB) DeleteChallenge(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletedChallenges = append(f.deletedChallenges, id)
	return nil
}

func (f *fakeRepoDB) DeleteTrustedDevice(_ context.Context, accountID int64, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletedDevices = append(f.deletedDevices, [2]string{strconv.FormatInt(accountID, 10), tokenHash})
	return nil
}

func (f *fakeRepoDB) DeleteTrustedDevices(_ context.Context, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletedDeviceSweeps = append(f.deletedDeviceSweeps, accountID)
	return nil
}

type testDeps struct {
	uc       *Usecase
	repo     *fakeRepoDB
	msg      *fakeMessaging
	limiter  *fakeLimiter
	denylist *fakeDenylist
	clock    *fakeClock
	hmac     hash.Hash
	bcrypt   hash.Hash
	argon2id hash.Hash
	enc      mfa.Encryptor
	totp     otp.OTP
	jwt      jwt.JWT
	routine  *goroutine.Manager
}

// newTestUsecase wires a Usecase with real crypto, validation, token and
// config components around in-memory fakes for storage, messaging and the
// limiter. The clock starts at the wall clock so issued tokens verify.
func newTestUsecase(t *testing.T) *testDeps {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	require.NoError(t, err)

	v10, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := &fakeClock{now: time.Now().UTC().Truncate(time.Second)}

	// Min bcrypt cost keeps the suite fast.
	bcryptHash := hash.NewBcrypt(4, "test-pepper")
	hmacHash := hash.NewHMACSHA256("test-hmac-secret")
	argonHash := hash.NewArgon2id("test-argon-pepper")

	key := make([]byte, 32)
	copy(key, []byte("0123456789abcdef0123456789abcdef"))
	enc := mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: key})

	totp := otp.NewTOTP("AuthCore", 30, 1, libOTP.DigitsSix)

	secret := make([]byte, 64)
	for i := range secret {
		secret[i] = byte('a' + i%26)
	}
	jwtImpl, err := jwt.NewHS512(jwt.Config{
		Secret:      secret,
		Issuer:      "authcore",
		Audiences:   []string{"authcore-api"},
		TTL:         time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
		Clock:       clk,
		UUID:        &seqStringID{prefix: "jti"},
	})
	require.NoError(t, err)

	d := &testDeps{
		repo:     &fakeRepoDB{},
		msg:      &fakeMessaging{},
		limiter:  &fakeLimiter{},
		denylist: newFakeDenylist(),
		clock:    clk,
		hmac:     hmacHash,
		bcrypt:   bcryptHash,
		argon2id: argonHash,
		enc:      enc,
		totp:     totp,
		jwt:      jwtImpl,
		routine:  goroutine.NewManager(8),
	}

	d.uc = New(Dependency{
		RepoDB:          d.repo,
		RepoMessaging:   d.msg,
		Validator:       v10,
		Config:          cfg,
		HMAC:            hmacHash,
		Bcrypt:          bcryptHash,
		Argon2ID:        argonHash,
		MFAEncryptor:    enc,
		MFARecoveryCode: mfa.NewRecoveryCode(),
		UID:             &seqNumberID{},
		OID:             &seqStringID{prefix: "tok"},
		Totp:            totp,
		Clock:           clk,
		JWT:             jwtImpl,
		Instrument:      instrument.NewNoop(),
		Goroutine:       d.routine,
		Limiter:         d.limiter,
		Denylist:        d.denylist,
		Captcha:         captcha.NewNoop(),
		QR:              qr.NewPNG(64),
	})

	return d
}

// waitAlerts flushes the async alert publisher before asserting on it.
func (d *testDeps) waitAlerts(t *testing.T) {
	t.Helper()
	require.NoError(t, d.routine.Wait())
}

// mustHash is a shortcut for hashing fixtures.
func mustHash(t *testing.T, h hash.Hash, plain string) string {
	t.Helper()

	out, err := h.Hash(plain)
	require.NoError(t, err)
	return string(out)
}

// authedCtx builds a context carrying verified session claims, the way the
// HTTP auth middleware does for protected endpoints.
func (d *testDeps) authedCtx(accountID int64, email string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        "jti-session",
			IssuedAt:  libJWT.NewNumericDate(d.clock.now),
			ExpiresAt: libJWT.NewNumericDate(d.clock.now.Add(time.Hour)),
		},
		AccountID:         accountID,
		Email:             email,
		TwoFactorVerified: false,
		EmailVerified:     true,
	})
}

// verifyClaims parses a session token issued by the suite's signer.
func (d *testDeps) verifyClaims(t *testing.T, token string) jwt.Claims {
	t.Helper()

	clm, err := d.jwt.Verify(token)
	require.NoError(t, err)
	return clm
}

// encryptedSeed creates a TOTP seed and its ciphertext bound to the account.
func (d *testDeps) encryptedSeed(t *testing.T, accountID int64) (string, []byte) {
	t.Helper()

	secret, _, err := d.totp.Generate("user@example.com")
	require.NoError(t, err)

	ciphertext, err := d.enc.Encrypt([]byte(secret), mfa.Scope{
		UserID:  accountID,
		Purpose: mfa.PurposeOTPSeed,
	})
	require.NoError(t, err)

	return secret, ciphertext
}

// totpCode computes the valid authenticator code for the suite clock.
func (d *testDeps) totpCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	code, err := d.totp.GenerateCode(secret, at)
	require.NoError(t, err)
	return code
}

// challengeFor wires the repo so the given plain token resolves to a
// challenge for the account.
func (d *testDeps) challengeFor(t *testing.T, ca entity.ChallengeAccount, plainToken string) {
	t.Helper()

	wantHash := mustHash(t, d.hmac, plainToken)
	d.repo.getChallengeAccount = func(tokenHash string, p entity.ChallengePurpose) (*entity.ChallengeAccount, error) {
		if tokenHash != wantHash || p != ca.ChallengePurpose {
			return nil, goerror.ErrNotFound
		}
		cp := ca
		return &cp, nil
	}
}

func asGoError(t *testing.T, err error) *goerror.Error {
	t.Helper()

	var ge *goerror.Error
	require.ErrorAs(t, err, &ge)
	return ge
}
