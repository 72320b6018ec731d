// Package middleware provides HTTP middlewares for the local artifact viewer.
package middleware

import (
	"net"
	"net/http"
)

// LoopbackOnly rejects requests that do not come from a loopback address.
// The viewer serves artifacts of the logged-in user and must never be
// reachable from the network, even if it was bound to a wider address.
func LoopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := net.ParseIP(peerHost(r))
		if ip == nil || !ip.IsLoopback() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// peerHost is the host part of r.RemoteAddr, or all of it if it has no port.
func peerHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
