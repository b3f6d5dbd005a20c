package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gobackend-labs/authcore/internal/pkg/jwt"
	"github.com/gobackend-labs/authcore/internal/pkg/tokendeny"
)

func middlewareAuthentication(
	verifier jwt.JWT,
	denylist tokendeny.Denylist,
	publicEndpoints map[string]map[string]struct{},
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := matchedRoutePath(r)

			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[path]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			p := strings.Fields(r.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeJSON(w, map[string]string{"message": "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(p[1])
			if err != nil {
				writeJSON(w, map[string]string{"message": "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			if denylist != nil {
				issuedAt := time.Time{}
				if claims.IssuedAt != nil {
					issuedAt = claims.IssuedAt.Time
				}

				// A denylist outage must not lock every caller out; only a
				// positive answer rejects the token.
				denied, derr := denylist.IsDenied(r.Context(), claims.ID, claims.AccountID, issuedAt)
				if derr == nil && denied {
					writeJSON(w, map[string]string{"message": "Invalid or expired token"}, http.StatusUnauthorized)
					return
				}
			}

			ctx := jwt.SetAuth(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
