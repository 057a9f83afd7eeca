package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenGeneratorAPI interface {
	GenerateSessionToken(user SessionUser) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims is the session state serialized to the client. It is a restore
// cache only: the session log store stays authoritative for the first-login
// time and the daily-access policy.
type Claims struct {
	Username        string   `json:"user_name"`
	Role            string   `json:"role"`
	SalesPersonName string   `json:"sales_person_name"`
	Tabs            []string `json:"tabs"`
	LoginTimeMs     int64    `json:"login_time_ms"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	Secret   []byte
	TokenTTL time.Duration
}

func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:   []byte(secret),
		TokenTTL: ttl,
	}
}

func (j *JWTTokenGenerator) GenerateSessionToken(user SessionUser) (string, error) {
	now := time.Now()

	claims := &Claims{
		Username:        user.Username,
		Role:            user.Role,
		SalesPersonName: user.SalesPersonName,
		Tabs:            user.Tabs,
		LoginTimeMs:     user.LoginTime.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.Username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// User rebuilds the session projection carried by the claims.
func (c *Claims) User() SessionUser {
	return SessionUser{
		Username:        c.Username,
		Role:            c.Role,
		SalesPersonName: c.SalesPersonName,
		Tabs:            c.Tabs,
		LoginTime:       time.UnixMilli(c.LoginTimeMs),
	}
}
