package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return requireWith(defaultChecker, func(c *Checker, role string) bool { return c.Has(role, perm) })
}

// RequireAny enforces that the role has at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return requireWith(defaultChecker, func(c *Checker, role string) bool { return c.Any(role, perms...) })
}

func requireWith(c *Checker, allowed func(*Checker, string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !allowed(c, role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PermissionsFor lists the default policy's permissions for role.
func PermissionsFor(role string) []string { return defaultChecker.Permissions(role) }
