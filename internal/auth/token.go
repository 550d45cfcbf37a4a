// Package auth issues and verifies bearer tokens and password hashes.
package auth

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/Spok95/school-supply/internal/apperr"
)

type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// ExpiresTime is when the token stops being accepted.
func (c *Claims) ExpiresTime() time.Time { return time.Unix(c.ExpiresAt, 0) }

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(userID int64, role string) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   fmt.Sprint(userID),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.ttl).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Parse verifies signature and expiry. Any failure is reported as Unauthorized.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !t.Valid {
		return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "token inválido ou expirado", Err: err}
	}
	if claims.UserID <= 0 || claims.Id == "" {
		return nil, apperr.Unauthorized("token inválido ou expirado")
	}
	return claims, nil
}
