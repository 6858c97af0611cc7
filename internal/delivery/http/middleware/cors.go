package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORS lets browser clients on the given origins call the API. With no
// origins the API stays same-origin only. A "*" entry allows every origin
// but never with credentials.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return next
	}

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: !slices.Contains(allowedOrigins, "*"),
	}).Handler(next)
}
