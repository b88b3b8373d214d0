package utils

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JWT Secret Key
var JwtKey = []byte("your_secret_key") // This will be loaded from config

// TokenTTL is how long issued tokens stay valid
var TokenTTL = 24 * time.Hour

// ErrInvalidToken covers malformed, expired and wrongly signed tokens
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.StandardClaims
}

// ObjectID returns the caller's user ID
func (c *Claims) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.UserID)
}

// GenerateJWT generates a JWT token for a user
func GenerateJWT(userID primitive.ObjectID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID.Hex(),
		Email:  email,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID.Hex(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(TokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtKey)
}

// ParseJWT verifies a token and returns its claims
func ParseJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return JwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.ObjectID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
