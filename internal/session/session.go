// Package session emite y valida los tokens de sesión primaria.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims son los claims de una sesión primaria. El subject es el account id.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// Manager firma y valida JWTs HS256 de sesión.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewManager(secret []byte, issuer string, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue emite un token para una cuenta.
func (m *Manager) Issue(accountID, role string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        fmt.Sprintf("%d", now.UnixNano()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse valida el token y retorna sus claims.
func (m *Manager) Parse(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// TTL expone la duración configurada (para el Max-Age de la cookie).
func (m *Manager) TTL() time.Duration { return m.ttl }
