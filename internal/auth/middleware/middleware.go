package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mimprep/profile-audit/internal/rbac"
)

const (
	issuer     = "profile-audit"
	defaultTTL = 8 * time.Hour
)

type AuthService struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{hmac: []byte(secret), ttl: defaultTTL, now: time.Now}
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "admin" or "analyst"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := a.now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Sub == "" {
		return nil, errors.New("invalid token claims")
	}
	return c, nil
}

type loginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// POST /auth/login  { "username": "...", "password": "..." }
func LoginHandler(a *AuthService, accounts *Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if accounts.Empty() {
			http.Error(w, "local login not configured", http.StatusServiceUnavailable)
			return
		}
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		acct, err := accounts.Verify(strings.TrimSpace(req.Username), req.Password)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(acct.Username, acct.Role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(loginResponse{
			AccessToken: tok,
			TokenType:   "Bearer",
			ExpiresIn:   int64(a.ttl.Seconds()),
			Role:        acct.Role,
			Permissions: rbac.PermissionsFor(acct.Role),
		})
	}
}

// JWTMiddleware requires a bearer token and puts its subject and role in the context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
