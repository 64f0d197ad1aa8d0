package auth

import (
	"net/http"

	"github.com/mimprep/profile-audit/internal/rbac"
)

// AttachRoleFromAccounts replaces the token's role with the account's configured role,
// so a removed account or a changed role takes effect before its tokens expire.
// allowClaimFallback=true in offline mode keeps the claim for unknown subjects.
func AttachRoleFromAccounts(accounts *Accounts, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			claimRole := rbac.RoleFromContext(ctx) // set by JWTMiddleware

			if role, ok := accounts.Role(sub); ok {
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
				return
			}
			if allowClaimFallback && claimRole != "" {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}
