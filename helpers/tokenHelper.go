package helpers

import (
	"errors"
	"fmt"
	"time"

	"kam-backend/models"

	"github.com/dgrijalva/jwt-go"
)

var ErrInvalidToken = errors.New("the token is invalid")

type SignedDetails struct {
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Uid          string      `json:"uid"`
	Role         models.Role `json:"role"`
	RestaurantID string      `json:"restaurantId,omitempty"`
	jwt.StandardClaims
}

// DetailsFor builds the session claims of user.
func DetailsFor(user *models.User) SignedDetails {
	details := SignedDetails{
		Email: user.Email,
		Name:  user.Name,
		Uid:   user.ID.Hex(),
		Role:  user.Role,
	}
	if user.RestaurantID != nil {
		details.RestaurantID = user.RestaurantID.Hex()
	}
	return details
}

func GenerateToken(details SignedDetails, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	details.StandardClaims = jwt.StandardClaims{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Subject:   details.Uid,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, details).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func ValidateToken(signedToken string, secret string) (*SignedDetails, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&SignedDetails{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*SignedDetails)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

// TokenLifetime is how long a validated token stays valid from now.
func TokenLifetime(claims *SignedDetails) time.Duration {
	return time.Until(time.Unix(claims.ExpiresAt, 0))
}
