package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/ignite/emailtype/internal/pkg/httputil"
)

// OrgContextKey is the key for storing the organization id in a request context
type OrgContextKey struct{}

// OrgHeader names the header carrying the organization id.
const OrgHeader = "X-Organization-ID"

// requireOrg resolves the organization for suppression routes.
// Priority: 1. X-Organization-ID header, 2. org_id query param, 3. default org.
// Requests without any are rejected with 400.
func requireOrg(defaultOrg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			org := strings.TrimSpace(r.Header.Get(OrgHeader))
			if org == "" {
				org = strings.TrimSpace(r.URL.Query().Get("org_id"))
			}
			if org == "" {
				org = defaultOrg
			}
			if org == "" {
				httputil.ErrorWithCode(w, http.StatusBadRequest, codeBadRequest, "organization id is required", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), OrgContextKey{}, org)))
		})
	}
}

// orgFrom returns the organization id set by requireOrg.
func orgFrom(r *http.Request) string {
	org, _ := r.Context().Value(OrgContextKey{}).(string)
	return org
}
