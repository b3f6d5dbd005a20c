package entity

type TriggerKey string

const (
	TriggerKeyEmailVerify   TriggerKey = "email_verify"
	TriggerKeyPasswordReset TriggerKey = "password_reset"
	TriggerKeySecurityAlert TriggerKey = "security_alert"
)

func (tk TriggerKey) String() string {
	return string(tk)
}
