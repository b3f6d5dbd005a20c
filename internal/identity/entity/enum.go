package entity

import "errors"

var (
	ErrAccountStatusUnknown    = errors.New("identity: account status is unknown")
	ErrAccountStatusBanned     = errors.New("identity: account status is banned")
	ErrAccountStatusUnverified = errors.New("identity: account status is unverified")
)

type AccountStatus int16

const (
	// AccountStatusUnknown is mean status is not known / not set.
	AccountStatusUnknown AccountStatus = 0

	// AccountStatusUnverified mean account exists but has not completed email verification.
	AccountStatusUnverified AccountStatus = 1

	// AccountStatusActive mean account is verified and allowed to use the app.
	AccountStatusActive AccountStatus = 2

	// AccountStatusBanned mean account is blocked from using the app (policy/abuse/etc).
	AccountStatusBanned AccountStatus = 3

	// AccountStatusInactive mean account is not currently active (e.g., deactivated, closed).
	AccountStatusInactive AccountStatus = 4
)

func (as AccountStatus) String() string {
	switch as {
	case AccountStatusActive:
		return "Active"
	case AccountStatusBanned:
		return "Banned"
	case AccountStatusInactive:
		return "Inactive"
	case AccountStatusUnverified:
		return "Unverified"
	default:
		return "Unknown"
	}
}

func (as AccountStatus) IsUnknown() bool {
	switch as {
	case AccountStatusUnverified, AccountStatusActive, AccountStatusBanned, AccountStatusInactive:
		return false
	default:
		return true
	}
}

func (as AccountStatus) Ensure() AccountStatus {
	switch as {
	case AccountStatusActive:
		return AccountStatusActive
	case AccountStatusBanned:
		return AccountStatusBanned
	case AccountStatusInactive:
		return AccountStatusInactive
	case AccountStatusUnverified:
		return AccountStatusUnverified
	default:
		return AccountStatusUnknown
	}
}

type ChallengePurpose int16

const (
	ChallengePurposeUnknown        ChallengePurpose = 0
	ChallengePurposeMFALogin       ChallengePurpose = 1
	ChallengePurposeTOTPEnroll     ChallengePurpose = 2
	ChallengePurposePasswordReset  ChallengePurpose = 3
	ChallengePurposeRegisterVerify ChallengePurpose = 4
)
