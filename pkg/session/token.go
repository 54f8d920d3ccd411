package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "restaurant_session"
	issuer     = "restaurant-service"
)

var ErrInvalidToken = errors.New("invalid or expired session")

type Claims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	UserID    uint   `json:"uid"`
	jwt.RegisteredClaims
}

// Manager signs session tokens whose expiry is the idle timeout; re-issuing on
// every request turns that into a sliding idle window.
type Manager struct {
	secret []byte
	idle   time.Duration
	now    func() time.Time
}

func NewManager(secret string, idle time.Duration) *Manager {
	return &Manager{secret: []byte(secret), idle: idle, now: time.Now}
}

func (m *Manager) IdleTimeout() time.Duration {
	return m.idle
}

func (m *Manager) Issue(sessionID, role string, userID uint) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.idle)
	claims := Claims{
		SessionID: sessionID,
		Role:      role,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionID == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
