package dto

import (
	"time"

	"cashpoint/internal/domain/auth"
)

// LoginRequest for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Username: r.Username, Password: r.Password}
}

// RegisterRequest for POST /auth/register.
type RegisterRequest struct {
	Username         string `json:"username" binding:"required"`
	Password         string `json:"password" binding:"required"`
	DisplayName      string `json:"displayName"`
	IsBackoffice     bool   `json:"isBackoffice"`
	IsTroubleshooter bool   `json:"isTroubleshooter"`
}

// ToAuthRequest converts to domain request.
func (r RegisterRequest) ToAuthRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		Username:         r.Username,
		Password:         r.Password,
		DisplayName:      r.DisplayName,
		IsBackoffice:     r.IsBackoffice,
		IsTroubleshooter: r.IsTroubleshooter,
	}
}

// RefreshTokenRequest for POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UserResponse is the public user shape.
type UserResponse struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	DisplayName      string     `json:"displayName,omitempty"`
	IsActive         bool       `json:"isActive"`
	IsBackoffice     bool       `json:"isBackoffice"`
	IsTroubleshooter bool       `json:"isTroubleshooter"`
	IsSuperuser      bool       `json:"isSuperuser"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

// FromUser maps a domain user.
func FromUser(u *auth.User) *UserResponse {
	return &UserResponse{
		ID:               u.ID.String(),
		Username:         u.Username,
		DisplayName:      u.DisplayName,
		IsActive:         u.IsActive,
		IsBackoffice:     u.IsBackoffice,
		IsTroubleshooter: u.IsTroubleshooter,
		IsSuperuser:      u.IsSuperuser,
		LastLoginAt:      u.LastLoginAt,
	}
}

// TokenPairResponse carries issued tokens.
type TokenPairResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// FromTokenPair maps a domain token pair.
func FromTokenPair(t *auth.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.ExpiresAt,
		TokenType:    t.TokenType,
	}
}

// LoginResponse for POST /auth/login.
type LoginResponse struct {
	Tokens TokenPairResponse `json:"tokens"`
	User   *UserResponse     `json:"user"`
}
