package event

const AccountRegistrationDestination string = "account_registration"
const AccountRegistrationConsumerNotification string = "account_registration_notification"

type AccountRegistrationMessage struct {
	AccountID      int64  `json:"account_id"`
	Email          string `json:"email"`
	ChallengeToken string `json:"challenge_token"`
}
