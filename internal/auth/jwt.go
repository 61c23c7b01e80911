// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package auth issues and validates the JWT bearer tokens used by the
// management endpoints (settings, audit queries, upstream lookups).
// Webhook deliveries do not use JWT; they are authenticated by payload
// signature at the gateway.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims carried by a management token.
type Claims struct {
	Subject string `json:"sub_name"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager creates and validates HS256-signed tokens.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a token manager. The secret must be non-empty;
// tokens expire after timeout (default 24h when zero).
func NewJWTManager(secret string, timeout time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required but was empty")
	}
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	return &JWTManager{
		secret:  []byte(secret),
		timeout: timeout,
	}, nil
}

// GenerateToken creates a signed token for a subject with a role.
func (m *JWTManager) GenerateToken(subject, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Subject: subject,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// ValidateToken checks signature, algorithm, and time claims, and
// returns the embedded claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
