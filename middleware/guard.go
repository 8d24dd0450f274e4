package middleware

import (
	"context"
	"net/http"
	"strings"

	goGate "github.com/MrEthical07/goGate"
)

type assertionContextKey struct{}

// AssertionFromContext returns the assertion injected by [RequireMFA].
func AssertionFromContext(ctx context.Context) (goGate.MFAAssertion, bool) {
	a, ok := ctx.Value(assertionContextKey{}).(goGate.MFAAssertion)
	return a, ok
}

// RequireMFA rejects requests that do not carry a valid MFA assertion as
// a bearer token. The parsed assertion is available to next through
// [AssertionFromContext].
func RequireMFA(engine *goGate.Engine) func(http.Handler) http.Handler {
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

			assertion, err := engine.ParseMFAAssertion(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), assertionContextKey{}, assertion)
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
