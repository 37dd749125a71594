package entity

// MailKind identifies which message template a delivery used.
type MailKind string

const (
	MailKindVerificationCode MailKind = "verification_code"
	MailKindWelcome          MailKind = "welcome"
)

func (k MailKind) String() string {
	return string(k)
}

type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusQueued  DeliveryStatus = 1
	DeliveryStatusSent    DeliveryStatus = 2
	DeliveryStatusFailed  DeliveryStatus = 3
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusQueued:
		return "queued"
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
