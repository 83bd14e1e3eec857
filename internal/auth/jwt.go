package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/authenticas/authenticas-api/internal/models"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 72 * time.Hour

// Claims carries the authenticated principal inside a signed token.
type Claims struct {
	UserID     string      `json:"userId"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	CompanyID  *string     `json:"companyId,omitempty"`
	RetailerID *string     `json:"retailerId,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for the given user.
func GenerateToken(user *models.User, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		CompanyID:  user.CompanyID,
		RetailerID: user.RetailerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses a token string and returns its claims when the
// signature and expiry check out.
func ValidateToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Principal converts token claims to the request principal.
func (c *Claims) Principal() *models.Principal {
	return &models.Principal{
		UserID:     c.UserID,
		Email:      c.Email,
		Role:       c.Role,
		CompanyID:  c.CompanyID,
		RetailerID: c.RetailerID,
	}
}
