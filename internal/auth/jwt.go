package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims identifies the acting cashier. Tokens are issued by the platform's
// identity service; this core only validates them and trusts what they carry.
type Claims struct {
	CashierID uuid.UUID
	Name      string
}

type tokenClaims struct {
	jwt.RegisteredClaims
	CashierID string `json:"cashier_id"`
	Name      string `json:"name"`
}

// GenerateToken mints an HS256 token. Production tokens come from the identity
// service; this exists for tests and local tooling.
func GenerateToken(cashierID uuid.UUID, name string, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		CashierID: cashierID.String(),
		Name:      name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("ValidateToken: invalid token claims")
	}

	cashierID, err := uuid.Parse(tc.CashierID)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: invalid cashier_id in token: %w", err)
	}

	return &Claims{
		CashierID: cashierID,
		Name:      tc.Name,
	}, nil
}
