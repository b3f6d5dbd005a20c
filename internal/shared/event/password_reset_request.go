package event

const PasswordResetRequestDestination string = "password_reset_request"
const PasswordResetRequestConsumerNotification string = "password_reset_request_notification"

type PasswordResetRequestMessage struct {
	AccountID      int64  `json:"account_id"`
	Email          string `json:"email"`
	ChallengeToken string `json:"challenge_token"`
}
