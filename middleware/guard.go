package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sparkmatch/authkit"
)

type principalContextKey struct{}

// PrincipalFromContext returns the principal the guard attached to the
// request, if any.
func PrincipalFromContext(ctx context.Context) (*authkit.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*authkit.Principal)
	return p, ok
}

// Guard wraps a handler with bearer-token authentication. Requests
// without a valid access token get a 401; authenticated requests carry
// the resolved principal in their context.
func Guard(engine *authkit.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			principal, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
