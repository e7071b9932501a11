package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes populates the routes for the API. The fixed paths are
// registered before /{id} so they are not captured as IDs.
func SetupRoutes(r *mux.Router, h *Handlers) {
	r.Path("/api/emails").Handler(
		h.wrap("ListEmails", h.ListEmails)).Name("ListEmails").Methods("GET", "OPTIONS")
	r.Path("/api/emails/latest").Handler(
		h.wrap("LatestEmail", h.LatestEmail)).Name("LatestEmail").Methods("GET", "OPTIONS")
	r.Path("/api/emails/config").Handler(
		h.wrap("TestConfig", h.TestConfig)).Name("TestConfig").Methods("GET", "OPTIONS")
	r.Path("/api/emails/status").Handler(
		h.wrap("Status", h.Status)).Name("Status").Methods("GET", "OPTIONS")
	r.Path("/api/emails/{id}").Handler(
		h.wrap("GetEmail", h.GetEmail)).Name("GetEmail").Methods("GET", "OPTIONS")
}

// corsMiddleware allows the configured origin to call the API from a browser
func corsMiddleware(origin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// NewRouter builds the API router with CORS applied
func NewRouter(h *Handlers, corsOrigin string) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware(corsOrigin))
	SetupRoutes(r, h)
	return r
}
