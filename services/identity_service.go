package services

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"ripple_server/apperrors"
)

// IdentityService resolves the already-authenticated principal for a request.
// Tokens are issued by the auth system; this service only verifies and reads
// them.
type IdentityService struct {
	Secret []byte
}

func NewIdentityService(secret string) *IdentityService {
	return &IdentityService{Secret: []byte(secret)}
}

// FromRequest returns the viewer's user id, or "" when the request carries no
// token (anonymous). A malformed or badly signed token is an error, not an
// anonymous viewer.
func (s *IdentityService) FromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header || tokenString == "" {
		return "", apperrors.Unauthenticated("invalid authorization header")
	}
	return s.ParseToken(tokenString)
}

// ParseToken verifies an HS256 token and returns its subject claim.
func (s *IdentityService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.Unauthenticated("unexpected signing method")
		}
		return s.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.Wrap(apperrors.CodeUnauthenticated, "invalid token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperrors.Unauthenticated("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", apperrors.Unauthenticated("token has no subject")
	}
	return sub, nil
}
