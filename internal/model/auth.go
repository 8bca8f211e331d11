package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims carry the verified (userId, displayName) pair supplied by the
// auth module at channel-open time.
type SessionClaims struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	jwt.RegisteredClaims
}

// SessionRequest is the request body for obtaining a session token.
type SessionRequest struct {
	DisplayName string `json:"displayName"`
}

// SessionResponse is returned after a session token is issued.
type SessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
