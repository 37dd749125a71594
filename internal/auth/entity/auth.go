package entity

import "time"

type User struct {
	ID            int64
	Email         string
	FirstName     string
	LastName      string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OtpRecord stores one issued verification code. CodeHash is the HMAC of
// the code; the plaintext only exists in transit to the mail channel.
type OtpRecord struct {
	ID           int64
	UserID       int64
	CodeHash     string
	SessionToken string
	ExpiresAt    time.Time
	IsUsed       bool
	AttemptCount int16
	CreatedAt    time.Time
}

// ---- //

type NewUser struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
}

// UserLoginInfo is the projection loaded for credential checks.
type UserLoginInfo struct {
	ID            int64
	Email         string
	FirstName     string
	LastName      string
	Password      string
	EmailVerified bool
}

type ConsumeOtp struct {
	RecordID int64
	UserID   int64
}
