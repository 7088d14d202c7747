package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with conservative defaults. Per-request
// deadlines come from the router's timeout middleware, so only the
// header-read and idle limits live here.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
