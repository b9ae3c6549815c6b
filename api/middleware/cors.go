package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local storefront dev server
	"http://localhost:5173", // local admin dashboard dev server
	"https://shopwindow-storefront.vercel.app",
	"https://shopwindow-admin.vercel.app",
}

// CORS returns middleware that applies the gateway's allowed origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Canonical-Query"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}
