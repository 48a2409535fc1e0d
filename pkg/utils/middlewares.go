package utils

import "net/http"

type Middleware func(http.Handler) http.Handler

// ApplyMiddlewares wraps handler so the last middleware listed runs first.
func ApplyMiddlewares(handler http.Handler, middlewares ...Middleware) http.Handler {
	for _, middleware := range middlewares {
		handler = middleware(handler)
	}
	return handler
}
