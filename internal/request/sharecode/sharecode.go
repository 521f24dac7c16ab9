// Package sharecode issues and validates the signed tokens embedded in the
// QR payload a verifier shares with a prover. The token binds the request id,
// its verification type, and the short code, and inherits the request's TTL.
package sharecode

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "proof-gateway/pkg/domain-errors"
)

type Claims struct {
	RequestID        string `json:"request_id"`
	VerificationType string `json:"verification_type"`
	Code             string `json:"code"`
	jwt.RegisteredClaims
}

// Service handles share-token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func New(signingKey string, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

func (s *Service) Generate(requestID uuid.UUID, verificationType, code string, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RequestID:        requestID.String(),
		VerificationType: verificationType,
		Code:             code,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeRequestExpired, "share code has expired")
		}
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid share code")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid share code")
	}
	return claims, nil
}
