// Package routes wires controllers and middleware into a gin engine.
//
//   - api.go: /v1 chat, link and admin routes, health and metrics
//   - web.go: service index and endpoint listing
//   - middleware.go: request id, zap access log, CORS
package routes
