package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignToken issues an HS256 token carrying the claims the JWT middleware
// reads back: uid, email and role.
func SignToken(secret []byte, userID, email, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"uid":   userID,
		"email": email,
		"role":  role,
		"exp":   jwt.NewNumericDate(time.Now().Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", ErrorHandler(err, "failed to sign token")
	}
	return signed, nil
}
