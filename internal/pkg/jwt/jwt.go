package jwt

import (
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Principal kinds carried in the "kind" claim.
const (
	KindAdmin = "admin"
	KindStaff = "staff"
)

// AccessClaims is the identity encoded into an access token.
type AccessClaims struct {
	Subject    string
	Kind       string
	SuperAdmin bool
	BusinessID string // staff tokens only
}

type Service interface {
	GenerateAccessToken(claims AccessClaims) (token string, expiresAt int64, err error)
	ParseAccessClaims(claims map[string]interface{}) (AccessClaims, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	expiration, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration: %w", err)
	}
	return &JWTService{
		accessTokenExpiration: expiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(claims AccessClaims) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	payload := map[string]interface{}{
		"sub":  claims.Subject,
		"kind": claims.Kind,
		"type": "access",
		"exp":  expiresAt,
	}
	switch claims.Kind {
	case KindAdmin:
		payload["super_admin"] = claims.SuperAdmin
	case KindStaff:
		payload["business_id"] = claims.BusinessID
	default:
		return "", 0, fmt.Errorf("unknown principal kind %q", claims.Kind)
	}

	_, tokenString, err := j.tokenAuth.Encode(payload)
	return tokenString, expiresAt, err
}

// ParseAccessClaims reads an already verified claim set. It rejects refresh
// or foreign tokens and claim sets missing the fields their kind requires.
func (j *JWTService) ParseAccessClaims(claims map[string]interface{}) (AccessClaims, error) {
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return AccessClaims{}, jwt.ErrInvalidJWT()
	}

	subject, _ := claims["sub"].(string)
	kind, _ := claims["kind"].(string)
	if subject == "" {
		return AccessClaims{}, jwt.ErrInvalidJWT()
	}

	out := AccessClaims{Subject: subject, Kind: kind}
	switch kind {
	case KindAdmin:
		out.SuperAdmin, _ = claims["super_admin"].(bool)
	case KindStaff:
		out.BusinessID, _ = claims["business_id"].(string)
		if out.BusinessID == "" {
			return AccessClaims{}, jwt.ErrInvalidJWT()
		}
	default:
		return AccessClaims{}, jwt.ErrInvalidJWT()
	}
	return out, nil
}
