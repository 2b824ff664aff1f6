package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/response"
)

// RequireAdmin allows admins and super admins
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := access.RequireAdmin(PrincipalFrom(r)); err != nil {
			response.HandleError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff allows staff principals only
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := access.RequireStaff(PrincipalFrom(r)); err != nil {
			response.HandleError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
