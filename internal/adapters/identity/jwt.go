// Package identity resolves caller tokens into verified actors.
package identity

import (
	"context"
	"fmt"

	"skupply-market-service/internal/domain/shared"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// JWTVerifier verifies HS256 tokens issued by the platform's auth
// service. Expected claims: sub (account id), name, email, role.
type JWTVerifier struct {
	secret []byte
	logger zerolog.Logger
}

type JWTVerifierParams struct {
	Secret string
	Logger zerolog.Logger
}

// NewJWTVerifier creates a new JWT-backed identity provider
func NewJWTVerifier(params JWTVerifierParams) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(params.Secret),
		logger: params.Logger.With().Str("component", "jwt_verifier").Logger(),
	}
}

// Verify resolves a token into the actor it was issued for.
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*shared.Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		v.logger.Warn().Err(err).Msg("Token verification failed")
		return nil, shared.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, shared.ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		v.logger.Warn().Str("sub", sub).Msg("Token subject is not a valid account id")
		return nil, shared.ErrUnauthorized
	}

	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if role == "" {
		role = string(shared.RoleUser)
	}

	return &shared.Actor{
		ID:    id,
		Name:  name,
		Email: email,
		Role:  shared.Role(role),
	}, nil
}
