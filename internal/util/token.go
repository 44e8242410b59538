package util

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/talent-lab/sourcedash/dao/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type (
	JWTClaims struct {
		UserID string     `json:"ui"`
		Email  string     `json:"em"`
		Role   model.Role `json:"ro"`
		jwt.RegisteredClaims
	}
	// JWTMessage is the verified identity attached to a request.
	JWTMessage struct {
		UserID string     `json:"userID"`
		Email  string     `json:"email"`
		Role   model.Role `json:"role"`
	}
)

// TokenManager issues and verifies the access/refresh token pair. The two
// tokens have independent secrets and lifetimes; there is no server-side
// revocation, a token stays valid until its expiry.
type TokenManager struct {
	accessSecret    string
	refreshSecret   string
	accessTokenTTL  int
	refreshTokenTTL int
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTLHours, refreshTTLHours int) *TokenManager {
	return &TokenManager{
		accessSecret:    accessSecret,
		refreshSecret:   refreshSecret,
		accessTokenTTL:  accessTTLHours,
		refreshTokenTTL: refreshTTLHours,
	}
}

func (tm *TokenManager) createToken(msg *JWTMessage, secret string, ttl int) (string, error) {
	claims := &JWTClaims{
		UserID: msg.UserID,
		Email:  msg.Email,
		Role:   msg.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * time.Duration(ttl))),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// CreateTokens creates a new access token and a new refresh token.
func (tm *TokenManager) CreateTokens(msg *JWTMessage) (accessToken, refreshToken string, err error) {
	accessToken, err = tm.createToken(msg, tm.accessSecret, tm.accessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = tm.createToken(msg, tm.refreshSecret, tm.refreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (tm *TokenManager) CheckAccessToken(requestToken string) (JWTMessage, error) {
	return checkToken(requestToken, tm.accessSecret)
}

func (tm *TokenManager) CheckRefreshToken(requestToken string) (JWTMessage, error) {
	return checkToken(requestToken, tm.refreshSecret)
}

func checkToken(requestToken, secret string) (JWTMessage, error) {
	claims := JWTClaims{}
	_, err := jwt.ParseWithClaims(requestToken, &claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return JWTMessage{}, ErrInvalidToken
	}
	return JWTMessage{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
