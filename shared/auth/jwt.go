package auth

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries a driver id as the token subject and a role. The driver id
// travels as the `userId` claim, with `user_id` accepted as a legacy
// fallback, matching the backend's auth contract rather than the standard
// `sub` claim.
type Claims struct {
	UserID string `json:"-"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) MarshalJSON() ([]byte, error) {
	type alias Claims
	return json.Marshal(struct {
		UserID string `json:"userId"`
		alias
	}{
		UserID: c.UserID,
		alias:  alias(c),
	})
}

func (c *Claims) UnmarshalJSON(data []byte) error {
	type alias Claims
	aux := struct {
		UserID      string `json:"userId"`
		UserIDSnake string `json:"user_id"`
		*alias
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.UserID != "" {
		c.UserID = aux.UserID
	} else {
		c.UserID = aux.UserIDSnake
	}
	return nil
}

type UserRole string

const (
	RoleDriver UserRole = "driver"
	RoleAdmin  UserRole = "admin"
)

// Validator signs and parses tokens with a secret supplied at construction
// so it never ships hardcoded in source.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

func (v *Validator) GenerateToken(driverID string, role UserRole) (string, error) {
	claims := Claims{
		UserID: driverID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "parcel-dispatch",
			Subject:   driverID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

func (v *Validator) ValidateRole(claims *Claims, requiredRole UserRole) error {
	if claims.Role != string(requiredRole) {
		return errors.New("insufficient permissions")
	}
	return nil
}
