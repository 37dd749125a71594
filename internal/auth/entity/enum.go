package entity

import "time"

// OtpState is the derived lifecycle state of an OtpRecord. Only
// consumption is stored; expiry and exhaustion are computed on read.
type OtpState int16

const (
	OtpStateActive            OtpState = 0
	OtpStateConsumed          OtpState = 1
	OtpStateExpired           OtpState = 2
	OtpStateAttemptsExhausted OtpState = 3
)

// MaxOtpAttempts caps failed code comparisons per record.
const MaxOtpAttempts int16 = 3

func (s OtpState) String() string {
	switch s {
	case OtpStateActive:
		return "Active"
	case OtpStateConsumed:
		return "Consumed"
	case OtpStateExpired:
		return "Expired"
	case OtpStateAttemptsExhausted:
		return "AttemptsExhausted"
	default:
		return "Unknown"
	}
}

// StateAt derives the record state at the given time.
func (r OtpRecord) StateAt(now time.Time) OtpState {
	if r.IsUsed {
		return OtpStateConsumed
	}
	if now.After(r.ExpiresAt) {
		return OtpStateExpired
	}
	if r.AttemptCount >= MaxOtpAttempts {
		return OtpStateAttemptsExhausted
	}
	return OtpStateActive
}
