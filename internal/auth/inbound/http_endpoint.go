package inbound

import (
	"github.com/shandysiswandi/verimail/internal/auth/usecase"
	"github.com/shandysiswandi/verimail/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for registration and email
// verification workflows.
type HTTPEndpoint struct {
	uc uc
}

// Register creates a new unverified user account.
// @Summary Register user
// @Description Creates a new account. The email stays unverified until a verification code is confirmed.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 200 {object} router.successResponse{data=RegisterResponse} "Registration result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Email already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ClientIP:  r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{
		ID:            resp.ID,
		Email:         resp.Email,
		FirstName:     resp.FirstName,
		LastName:      resp.LastName,
		EmailVerified: resp.EmailVerified,
	}, nil
}

// RequestOtp issues a verification code and emails it to the user.
// @Summary Request verification code
// @Description Issues a new email verification code for an existing account and sends it by email.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RequestOtpRequest true "Code request payload"
// @Success 200 {object} router.successResponse{data=RequestOtpResponse} "Issuance result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error or delivery failure"
// @Router /api/v1/auth/otp/request [post]
func (h *HTTPEndpoint) RequestOtp(r *router.Request) (any, error) {
	var req RequestOtpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestOtp(r.Context(), usecase.RequestOtpInput{
		Email:    req.Email,
		ClientIP: r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return RequestOtpResponse{
		SessionToken: resp.SessionToken,
		ExpiresAt:    resp.ExpiresAt,
	}, nil
}

// VerifyOtp confirms a verification code and marks the email verified.
// @Summary Verify code
// @Description Verifies a previously issued code. On success the email is marked verified and a session token is returned.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyOtpRequest true "Code verification payload"
// @Success 200 {object} router.successResponse{data=VerifyOtpResponse} "Verification result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid verification code"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/verify [post]
func (h *HTTPEndpoint) VerifyOtp(r *router.Request) (any, error) {
	var req VerifyOtpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOtp(r.Context(), usecase.VerifyOtpInput{
		Email:    req.Email,
		Code:     req.Code,
		ClientIP: r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOtpResponse{
		AccessToken:   resp.AccessToken,
		ID:            resp.ID,
		Email:         resp.Email,
		FirstName:     resp.FirstName,
		LastName:      resp.LastName,
		EmailVerified: resp.EmailVerified,
	}, nil
}

// Login authenticates a verified user and returns a session token.
// @Summary Authenticate user
// @Description Validates credentials for a verified account and returns a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 403 {object} router.errorResponse "Email not verified"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		AccessToken:   resp.AccessToken,
		ID:            resp.ID,
		Email:         resp.Email,
		FirstName:     resp.FirstName,
		LastName:      resp.LastName,
		EmailVerified: resp.EmailVerified,
	}, nil
}
