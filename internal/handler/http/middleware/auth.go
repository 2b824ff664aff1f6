package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AdminDirectory is the slice of the admin repository the resolver needs.
type AdminDirectory interface {
	GetByID(ctx context.Context, id string) (admin.Admin, error)
	ListBusinessIDs(ctx context.Context, adminID string) ([]string, error)
}

// AuthRequired turns a verified access token into an access.Principal and
// stores it on the request context. Admin memberships are loaded per request
// so revoked access takes effect without reissuing tokens.
func AuthRequired(tokens jwt.Service, admins AdminDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			parsed, err := tokens.ParseAccessClaims(claims)
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			principal, err := resolvePrincipal(r.Context(), admins, parsed)
			if err != nil {
				response.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(access.WithPrincipal(r.Context(), principal)))
		}
		return http.HandlerFunc(hfn)
	}
}

func resolvePrincipal(ctx context.Context, admins AdminDirectory, claims jwt.AccessClaims) (access.Principal, error) {
	if claims.Kind == jwt.KindStaff {
		return access.Staff{ID: claims.Subject, BusinessID: claims.BusinessID}, nil
	}

	a, err := admins.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	if a.IsSuperAdmin {
		return access.SuperAdmin{ID: a.ID}, nil
	}

	businessIDs, err := admins.ListBusinessIDs(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return access.Admin{ID: a.ID, BusinessIDs: businessIDs}, nil
}

// PrincipalFrom returns the principal stored by AuthRequired, or nil.
func PrincipalFrom(r *http.Request) access.Principal {
	p, _ := access.FromContext(r.Context())
	return p
}
