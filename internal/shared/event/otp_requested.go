package event

const OtpRequestedDestination string = "otp_requested"
const OtpRequestedConsumerNotification string = "otp_requested_notification"

// OtpRequestedMessage carries the plaintext code to the notification
// module. Only the HMAC of the code is ever persisted.
type OtpRequestedMessage struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
}
