package auth

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/tauraamui/xerror"
)

const (
	audience      = "scandaemon"
	tokenLifetime = time.Minute * 15
)

var (
	ErrTokenExpired     = errors.New("auth token has expired")
	ErrInvalidAudience  = errors.New("auth token has invalid audience")
	ErrUnexpectedMethod = errors.New("unexpected token signing method")
)

type customClaims struct {
	UserUUID string `json:"useruuid"`
	jwt.StandardClaims
}

var timeNow = func() time.Time {
	return time.Now()
}

func GenToken(secret, userUUID string) (string, error) {
	claims := customClaims{
		UserUUID: userUUID,
		StandardClaims: jwt.StandardClaims{
			Audience:  audience,
			IssuedAt:  timeNow().UTC().Unix(),
			ExpiresAt: timeNow().UTC().Add(tokenLifetime).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken returns the user UUID a valid token was issued for.
func ValidateToken(secret, tokenString string) (string, error) {
	parser := jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(
		tokenString,
		&customClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrUnexpectedMethod
			}
			return []byte(secret), nil
		},
	)

	if err != nil {
		return "", xerror.Errorf("unable to validate token: %w", err)
	}

	return checkClaims(token.Claims)
}

func checkClaims(claims jwt.Claims) (string, error) {
	cc, ok := claims.(*customClaims)
	if !ok {
		return "", errors.New("unable to parse claims")
	}

	if cc.ExpiresAt < timeNow().UTC().Unix() {
		return "", ErrTokenExpired
	}

	if !cc.VerifyAudience(audience, true) {
		return "", ErrInvalidAudience
	}

	return cc.UserUUID, nil
}
