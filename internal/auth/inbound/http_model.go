package inbound

import "time"

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RegisterResponse struct {
	ID            int64  `json:"id,string"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	EmailVerified bool   `json:"email_verified"`
}

func (RegisterResponse) Message() string {
	return "Registration successful. Request a verification code to activate your account."
}

type RequestOtpRequest struct {
	Email string `json:"email"`
}

type RequestOtpResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (RequestOtpResponse) Message() string {
	return "A verification code has been sent to your email."
}

type VerifyOtpRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifyOtpResponse struct {
	AccessToken   string `json:"access_token"`
	ID            int64  `json:"id,string"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	EmailVerified bool   `json:"email_verified"`
}

func (VerifyOtpResponse) Message() string {
	return "Email verified successfully."
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken   string `json:"access_token"`
	ID            int64  `json:"id,string"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	EmailVerified bool   `json:"email_verified"`
}
