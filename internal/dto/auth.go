package dto

import "time"

type SignupRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=100"`
	Phone    string `json:"phone" binding:"omitempty,min=10,max=15"`
	Role     string `json:"role" binding:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserSummary is the public-safe projection of a user. The password hash
// never leaves the service layer.
type UserSummary struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"` // Access token expiry in seconds
	User         UserSummary `json:"user"`
}

// RequestInfo carries the transport-layer facts the access auditor records.
// The service layer treats it as opaque.
type RequestInfo struct {
	IP        string
	Endpoint  string // method + path, e.g. "POST /api/v1/auth/login"
	UserAgent string
	RequestID string
	Referer   string
}
