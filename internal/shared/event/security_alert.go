package event

import "time"

const SecurityAlertDestination string = "security_alert"
const SecurityAlertConsumerNotification string = "security_alert_notification"

// Alert kinds carried by SecurityAlertMessage.
const (
	SecurityAlertLockout           = "account_lockout"
	SecurityAlertPasswordChanged   = "password_changed"
	SecurityAlertTwoFactorEnabled  = "two_factor_enabled"
	SecurityAlertTwoFactorDisabled = "two_factor_disabled"
	SecurityAlertRecoveryCodeUsed  = "recovery_code_used"
)

type SecurityAlertMessage struct {
	AccountID int64     `json:"account_id"`
	Email     string    `json:"email"`
	Kind      string    `json:"kind"`
	At        time.Time `json:"at"`
}
