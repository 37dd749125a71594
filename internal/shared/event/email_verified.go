package event

const EmailVerifiedDestination string = "email_verified"
const EmailVerifiedConsumerNotification string = "email_verified_notification"

type EmailVerifiedMessage struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}
