package dto

import "github.com/google/uuid"

// SignupRequest caps the password at bcrypt's 72-byte input limit.
type SignupRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=72"`
}

type SignupResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Message  string    `json:"message"`
}

// TokenRequest is the form-encoded password grant.
type TokenRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	// Seconds until the token stops verifying.
	ExpiresIn int64 `json:"expires_in"`
}

type MeResponse struct {
	Username string `json:"username"`
}
