// Package token issues and validates the HS256 access tokens the HTTP layer
// turns into actor contexts.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"aide/internal/actor"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
)

// Claims carries the actor identity inside the signed token. Subject is the
// account UUID for user/admin kinds.
type Claims struct {
	Kind        string   `json:"kind"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Service handles token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// Issue signs an access token for the given actor.
func (s *Service) Issue(act actor.Context, expiresIn time.Duration) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Kind:        string(act.Kind),
		Permissions: act.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   act.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// Validate parses and verifies a token string.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ActorFrom builds the actor context a validated token stands for. Unknown
// kinds are rejected rather than defaulted: a forged kind must not fall back
// to something permissive.
func ActorFrom(claims *Claims) (actor.Context, error) {
	switch actor.Kind(claims.Kind) {
	case actor.KindSystem:
		return actor.NewSystem(), nil
	case actor.KindAI:
		return actor.NewAI(), nil
	case actor.KindUser, actor.KindAdmin:
		userID, err := id.ParseUserID(claims.Subject)
		if err != nil {
			return actor.Context{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
		}
		if actor.Kind(claims.Kind) == actor.KindAdmin {
			return actor.NewAdmin(userID, claims.Permissions...), nil
		}
		return actor.NewUser(userID, claims.Permissions...), nil
	default:
		return actor.Context{}, dErrors.New(dErrors.CodeUnauthorized, "unknown actor kind")
	}
}
