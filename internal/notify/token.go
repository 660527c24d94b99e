package notify

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningClaims scope a signing link to exactly one participant of one
// contract.
type SigningClaims struct {
	ContractID    string `json:"contract_id"`
	ParticipantID string `json:"participant_id"`
	jwt.RegisteredClaims
}

// JWTMinter mints and verifies HS256 signing tokens.
type JWTMinter struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTMinter(secret string, ttl time.Duration) *JWTMinter {
	return &JWTMinter{secret: []byte(secret), ttl: ttl}
}

func (m *JWTMinter) Mint(contractID, participantID string) (string, error) {
	now := time.Now()
	claims := SigningClaims{
		ContractID:    contractID,
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses a signing token and returns its claims.
func (m *JWTMinter) Verify(raw string) (*SigningClaims, error) {
	claims := &SigningClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid signing token")
	}
	return claims, nil
}
