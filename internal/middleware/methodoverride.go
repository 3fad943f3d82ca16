package middleware

import (
	"net/http"
	"strings"
)

const methodOverrideParam = "_method"

// MethodOverride lets HTML forms reach PUT and DELETE routes by posting with
// ?_method=PUT or a _method form field. It wraps the router because gin picks
// the route before any gin middleware runs.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			method := r.URL.Query().Get(methodOverrideParam)
			if method == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				method = r.PostFormValue(methodOverrideParam)
			}
			switch strings.ToUpper(method) {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = strings.ToUpper(method)
			}
		}
		next.ServeHTTP(w, r)
	})
}
