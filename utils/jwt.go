package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"worknest/config"
	"worknest/models"
)

// Claims carry identity only. Authorization always re-fetches the
// current user row instead of trusting role or tenancy from the token.
type Claims struct {
	UserID         uint        `json:"user_id"`
	Role           models.Role `json:"role"`
	OrganizationID uint        `json:"organization_id"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed bearer token with a 24 hour expiry.
func GenerateToken(user *models.User) (string, error) {
	claims := &Claims{
		UserID:         user.ID,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
