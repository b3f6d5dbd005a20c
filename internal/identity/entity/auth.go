package entity

import (
	"time"

	"github.com/gobackend-labs/authcore/internal/pkg/valueobject"
)

type Account struct {
	ID                 int64
	Email              string
	Status             AccountStatus
	FailedAttempts     int32
	LockedUntil        *time.Time
	LockoutEscalations int32
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

type AccountCredential struct {
	AccountID int64
	Password  string // hashed
	UpdatedAt time.Time
}

// TwoFactor is the enabled TOTP factor of an account. Secret holds the
// encrypted seed, never the plaintext.
type TwoFactor struct {
	AccountID  int64
	Secret     []byte
	KeyVersion int16 // key rotation version
	EnabledAt  time.Time
}

type RecoveryCode struct {
	ID        int64
	AccountID int64
	Code      string // keyed hash, never the plaintext code
	Used      bool
}

type TrustedDevice struct {
	ID        int64
	AccountID int64
	TokenHash string
	ExpiresAt time.Time
}

type PasswordHistory struct {
	ID        int64
	AccountID int64
	Password  string // hashed
	CreatedAt time.Time
}

type Challenge struct {
	ID        int64
	AccountID int64
	Token     string
	Purpose   ChallengePurpose
	ExpiresAt time.Time
	Metadata  valueobject.JSONMap
}

// ---- //

type ChallengeAccount struct {
	ChallengeID       int64
	ChallengePurpose  ChallengePurpose
	ChallengeToken    string
	ChallengeMetadata valueobject.JSONMap
	AccountID         int64
	AccountEmail      string
	AccountStatus     AccountStatus
}

type AccountLoginInfo struct {
	ID                 int64
	Email              string
	Status             AccountStatus
	Password           string
	FailedAttempts     int32
	LockedUntil        *time.Time
	LockoutEscalations int32
	HasTwoFactor       bool
}

type AccountCredentialInfo struct {
	ID       int64
	Email    string
	Status   AccountStatus
	Password string
}

type NewAccount struct {
	ID     int64
	Email  string
	Status AccountStatus
}

type VerifyRegistration struct {
	ChallengeID int64
	AccountID   int64
	OldStatus   AccountStatus
	NewStatus   AccountStatus
}

// LoginFailureState is the account lockout state after a recorded failure.
type LoginFailureState struct {
	FailedAttempts     int32
	LockedUntil        *time.Time
	LockoutEscalations int32
}

// PasswordUpdate describes an atomic credential rotation: the old hash moves
// into history, history is trimmed, every trusted device is revoked, and the
// originating challenge (if any) is consumed.
type PasswordUpdate struct {
	AccountID    int64
	HistoryID    int64
	OldHash      string
	NewHash      string
	HistoryLimit int32
	ChallengeID  int64 // 0 when not driven by a reset challenge
}
