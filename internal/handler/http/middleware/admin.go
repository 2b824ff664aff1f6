package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/response"
)

// SuperAdminOnly rejects everyone but super admins.
func SuperAdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := access.RequireSuperAdmin(PrincipalFrom(r)); err != nil {
			response.HandleError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
